package firmware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/s68k/firmware/hid"
	"github.com/s68k/firmware/internal/keymap"
	"github.com/s68k/firmware/internal/lighting"
	"github.com/s68k/firmware/internal/metrics"
	"github.com/s68k/firmware/internal/output"
	"github.com/s68k/firmware/internal/transport"
	"github.com/s68k/firmware/internal/transport/serialbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptBus serves one frame per Load. After the script runs out it keeps
// serving the last frame.
type scriptBus struct {
	mu     sync.Mutex
	frames [][]byte
	i      int
	err    error
}

func (b *scriptBus) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.i < len(b.frames)-1 {
		b.i++
	}
	return nil
}

func (b *scriptBus) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	return copy(p, b.frames[b.i]), nil
}

// frame builds an active-low register sample with ids held down.
func frame(registers int, ids ...int) []byte {
	f := bytes.Repeat([]byte{0xFF}, registers)
	for _, id := range ids {
		f[id/8] &^= 1 << (7 - id%8)
	}
	return f
}

type recorder struct {
	events []string
	err    error
}

func (r *recorder) Press(codes ...hid.Keycode) error {
	for _, c := range codes {
		r.events = append(r.events, "press "+c.String())
	}
	return r.err
}

func (r *recorder) Release(codes ...hid.Keycode) error {
	for _, c := range codes {
		r.events = append(r.events, "release "+c.String())
	}
	return r.err
}

func (r *recorder) ReleaseAll() error {
	r.events = append(r.events, "release all")
	return nil
}

type rig struct {
	t      *testing.T
	board  *keymap.Board
	bus    *scriptBus
	bridge *recorder
	usb    *recorder
	strip  *bytes.Buffer
	erased int
	kb     *Keyboard
	m      *metrics.Metrics
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		t:      t,
		board:  keymap.DefaultBoard(),
		bus:    &scriptBus{},
		bridge: &recorder{},
		usb:    &recorder{},
		strip:  &bytes.Buffer{},
		m:      metrics.New(),
	}
	r.bus.frames = [][]byte{frame(r.board.Registers)}

	out, err := output.New(output.Config{
		SerialBridge: r.bridge,
		OpenUSB:      func() (transport.Transport, error) { return r.usb, nil },
		Hooks: output.Hooks{
			TransportFailed: r.m.TransportFailed,
		},
	}, output.ModeSerialBridge, discard())
	require.NoError(t, err)

	r.kb, err = New(Config{
		Board:      r.board,
		Bus:        r.bus,
		Output:     out,
		Strip:      r.strip,
		Lighting:   lighting.Options{Mode: lighting.OnPress, Level: 255, Max: 255, Step: 16},
		EraseBonds: func() error { r.erased++; return nil },
		Metrics:    r.m,
		Rand:       rand.New(rand.NewPCG(1, 1)),
	}, discard())
	require.NoError(t, err)
	return r
}

// hold queues a sample with the named keys down and runs one cycle.
func (r *rig) hold(names ...string) {
	r.t.Helper()
	var ids []int
	for _, n := range names {
		id, ok := r.board.Keys[n]
		require.True(r.t, ok, n)
		ids = append(ids, id)
	}
	r.bus.frames = append(r.bus.frames, frame(r.board.Registers, ids...))
	require.NoError(r.t, r.kb.Cycle(context.Background()))
}

func TestTypingThroughSerialBridge(t *testing.T) {
	r := newRig(t)
	r.hold("H")
	r.hold("H")
	r.hold()
	r.hold("I")
	r.hold()

	assert.Equal(t, []string{"press H", "release H", "press I", "release I"}, r.bridge.events)
	assert.Equal(t, 5.0, testutil.ToFloat64(r.m.Cycles))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.m.Dispatches.WithLabelValues("press")))
}

// framePort records every frame written to the bridge UART.
type framePort struct {
	frames [][]byte
}

func (p *framePort) Write(b []byte) (int, error) {
	p.frames = append(p.frames, bytes.Clone(b))
	return len(b), nil
}

func (p *framePort) Close() error { return nil }

func TestSerialBridgeHoldsFirstSixKeys(t *testing.T) {
	board := keymap.DefaultBoard()
	port := &framePort{}
	out, err := output.New(output.Config{
		SerialBridge: serialbridge.New(port, nil),
	}, output.ModeSerialBridge, discard())
	require.NoError(t, err)

	bus := &scriptBus{frames: [][]byte{frame(board.Registers)}}
	kb, err := New(Config{Board: board, Bus: bus, Output: out}, discard())
	require.NoError(t, err)

	var ids []int
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		ids = append(ids, board.Keys[name])
	}
	bus.frames = append(bus.frames, frame(board.Registers, ids...))
	require.NoError(t, kb.Cycle(context.Background()))

	slices.Sort(ids)
	base := kb.Stack().Layers()[0]
	var want []hid.Keycode
	for _, id := range ids[:6] {
		vk, ok := base.Lookup(id)
		require.True(t, ok)
		want = append(want, vk.Code)
	}

	require.Len(t, port.frames, 7, "one frame per press")
	report, err := serialbridge.ParseFrame(port.frames[len(port.frames)-1])
	require.NoError(t, err)
	assert.Equal(t, want, report.Held())
	assert.Zero(t, report.Modifiers)
}

func TestBaseLayerRemap(t *testing.T) {
	r := newRig(t)
	r.hold("ESCAPE")
	r.hold()
	assert.Equal(t, []string{"press GRAVE_ACCENT", "release GRAVE_ACCENT"}, r.bridge.events)
}

func TestFnCommandSwitchesMode(t *testing.T) {
	r := newRig(t)
	r.hold("Fn")
	r.hold("Fn", "Q")
	r.hold("Fn", "Q")
	r.hold("Fn")
	r.hold()
	assert.Equal(t, output.ModeUSB, r.kb.Output().Mode())
	assert.Equal(t, []string{"release all"}, r.bridge.events, "commands never type")

	r.hold("A")
	r.hold()
	assert.Equal(t, []string{"press A", "release A"}, r.usb.events)
}

func TestFnCommandsForLightingAndBonds(t *testing.T) {
	r := newRig(t)
	r.hold("Fn", "DOWN_ARROW")
	r.hold("Fn")
	r.hold("Fn", "DOWN_ARROW")
	assert.Equal(t, uint8(223), r.kb.Lighting().Level())
	assert.Equal(t, 223.0, testutil.ToFloat64(r.m.LightLevel))

	r.hold("Fn", "UP_ARROW")
	assert.Equal(t, uint8(239), r.kb.Lighting().Level())

	r.hold("Fn", "SPACEBAR")
	assert.Equal(t, lighting.RandomStatic, r.kb.Lighting().Mode())

	r.hold("Fn", "BACKSPACE")
	r.hold("Fn", "BACKSPACE")
	assert.Equal(t, 1, r.erased)
}

func TestStripFrameFollowsPressedKeys(t *testing.T) {
	r := newRig(t)
	pixels := len(r.board.Pixels)

	r.hold("A")
	require.Equal(t, 3*pixels, r.strip.Len())
	lit := r.strip.Bytes()
	a, _ := r.kb.Registry().ByName("A")
	idx := -1
	for i, id := range r.board.Pixels {
		if id == a.ID {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	c := a.Color()
	assert.Equal(t, []byte{c.R, c.G, c.B}, lit[3*idx:3*idx+3])
	for i := 0; i < pixels; i++ {
		if i != idx {
			assert.Equal(t, []byte{0, 0, 0}, lit[3*i:3*i+3], "pixel %d", i)
		}
	}

	r.strip.Reset()
	r.hold()
	assert.Equal(t, make([]byte, 3*pixels), r.strip.Bytes())
}

func TestMatrixErrorSkipsCycle(t *testing.T) {
	r := newRig(t)
	r.bus.err = errors.New("spi timeout")
	require.NoError(t, r.kb.Cycle(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.m.MatrixErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.m.Cycles))
}

func TestDispatchErrorIsFatal(t *testing.T) {
	r := newRig(t)
	r.hold("Fn", "E")
	r.hold()
	require.Equal(t, output.ModeBluetooth, r.kb.Output().Mode())

	r.bus.frames = append(r.bus.frames, frame(r.board.Registers, r.board.Keys["A"]))
	err := r.kb.Cycle(context.Background())
	assert.ErrorIs(t, err, output.ErrMissingTransport)
}

func TestRunResetsAndStopsOnCancel(t *testing.T) {
	r := newRig(t)
	r.bus.frames = append(r.bus.frames, frame(r.board.Registers, r.board.Keys["B"]))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, r.kb.Run(ctx))

	require.GreaterOrEqual(t, len(r.bridge.events), 3)
	assert.Equal(t, "release all", r.bridge.events[0])
	assert.Equal(t, "press B", r.bridge.events[1])
	assert.Equal(t, "release all", r.bridge.events[len(r.bridge.events)-1])

	tail := r.strip.Bytes()[r.strip.Len()-3*len(r.board.Pixels):]
	assert.Equal(t, make([]byte, 3*len(r.board.Pixels)), tail, "strip is blanked on exit")
}

func TestNewRejectsBadCommands(t *testing.T) {
	out, err := output.New(output.Config{}, output.ModeDummy, discard())
	require.NoError(t, err)

	for _, cmd := range []string{"mode:parallel", "light:strobe", "reboot"} {
		b := keymap.DefaultBoard()
		b.Commands = map[string]string{"Q": cmd}
		_, err := New(Config{Board: b, Bus: &scriptBus{frames: [][]byte{nil}}, Output: out}, discard())
		assert.Error(t, err, cmd)
	}

	_, err = New(Config{Board: keymap.DefaultBoard()}, discard())
	assert.Error(t, err)
}

func TestEraseBondsWithoutRadio(t *testing.T) {
	out, err := output.New(output.Config{}, output.ModeDummy, discard())
	require.NoError(t, err)
	kb, err := New(Config{Board: keymap.DefaultBoard(), Bus: &scriptBus{frames: [][]byte{nil}}, Output: out}, discard())
	require.NoError(t, err)
	cmd, err := kb.Command("erase_bonds")
	require.NoError(t, err)
	assert.NoError(t, cmd.Run())
}
