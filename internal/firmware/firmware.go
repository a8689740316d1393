// Package firmware wires the scan pipeline together and runs the scan loop:
// sample the matrix, update the registry, dispatch the active layer, then
// render and flush the LED frame.
package firmware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/s68k/firmware/internal/keymap"
	"github.com/s68k/firmware/internal/lighting"
	ilog "github.com/s68k/firmware/internal/log"
	"github.com/s68k/firmware/internal/matrix"
	"github.com/s68k/firmware/internal/metrics"
	"github.com/s68k/firmware/internal/output"
)

// DefaultScanInterval is the sleep between scan cycles.
const DefaultScanInterval = 5 * time.Millisecond

// Config collects everything a Keyboard is built from. Board, Bus and
// Output are required.
type Config struct {
	Board    *keymap.Board
	Bus      matrix.Bus
	BusLock  *matrix.Lock
	Output   *output.Multiplexer
	Strip    io.Writer
	Lighting lighting.Options
	// EraseBonds forgets every bluetooth pairing. Nil when there is no radio.
	EraseBonds   func() error
	Metrics      *metrics.Metrics
	ScanInterval time.Duration
	Rand         *rand.Rand
}

// Keyboard is the firmware state for one process lifetime.
type Keyboard struct {
	reader   *matrix.Reader
	domain   []int
	reg      *keymap.Registry
	stack    *keymap.Stack
	disp     *keymap.Dispatcher
	out      *output.Multiplexer
	light    *lighting.Renderer
	strip    io.Writer
	pixels   int
	erase    func() error
	metrics  *metrics.Metrics
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New builds the registry, layers and renderer for cfg.Board and binds its
// command table.
func New(cfg Config, logger *slog.Logger) (*Keyboard, error) {
	if cfg.Board == nil || cfg.Bus == nil || cfg.Output == nil {
		return nil, errors.New("firmware: board, bus and output are required")
	}
	if err := cfg.Board.Validate(); err != nil {
		return nil, err
	}
	reg, err := keymap.NewRegistry(cfg.Board.Keys, cfg.Lighting.Max, cfg.Rand)
	if err != nil {
		return nil, err
	}
	strip := cfg.Strip
	if strip == nil {
		strip = io.Discard
	}
	interval := cfg.ScanInterval
	if interval <= 0 {
		interval = DefaultScanInterval
	}

	k := &Keyboard{
		reader:   matrix.NewReader(cfg.Bus, cfg.BusLock, cfg.Board.Registers),
		domain:   reg.IDs(),
		reg:      reg,
		out:      cfg.Output,
		light:    lighting.New(cfg.Board.Pixels, cfg.Lighting),
		strip:    strip,
		pixels:   len(cfg.Board.Pixels),
		erase:    cfg.EraseBonds,
		metrics:  cfg.Metrics,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}

	commands := make(map[string]keymap.Command, len(cfg.Board.Commands))
	for key, def := range cfg.Board.Commands {
		cmd, err := k.Command(def)
		if err != nil {
			return nil, fmt.Errorf("firmware: command for %s: %w", key, err)
		}
		commands[key] = cmd
	}
	k.stack, err = keymap.Build(cfg.Board, reg, commands)
	if err != nil {
		return nil, err
	}
	k.disp = keymap.NewDispatcher(k.stack, k.out)
	if k.metrics != nil {
		k.metrics.LightLevel.Set(float64(k.light.Level()))
	}
	return k, nil
}

// Command parses a command string into a bound action. Accepted forms:
//
//	mode:<usb_hid|bluetooth|serial_bridge|dummy>
//	erase_bonds
//	light:up, light:down, light:mode
func (k *Keyboard) Command(def string) (keymap.Command, error) {
	verb, arg, _ := strings.Cut(def, ":")
	switch verb {
	case "mode":
		mode, err := output.ParseMode(arg)
		if err != nil {
			return keymap.Command{}, err
		}
		return keymap.Command{Name: def, Run: func() error { return k.out.SetMode(mode) }}, nil
	case "erase_bonds":
		return keymap.Command{Name: def, Run: k.eraseBonds}, nil
	case "light":
		var run func()
		switch arg {
		case "up":
			run = func() { k.light.Brighter() }
		case "down":
			run = func() { k.light.Dimmer() }
		case "mode":
			run = func() { k.logger.Info("lighting mode", "mode", k.light.NextMode()) }
		default:
			return keymap.Command{}, fmt.Errorf("unknown lighting command %q", arg)
		}
		return keymap.Command{Name: def, Run: func() error {
			run()
			if k.metrics != nil {
				k.metrics.LightLevel.Set(float64(k.light.Level()))
			}
			return nil
		}}, nil
	default:
		return keymap.Command{}, fmt.Errorf("unknown command %q", def)
	}
}

func (k *Keyboard) eraseBonds() error {
	if k.erase == nil {
		k.logger.Warn("no bluetooth radio, nothing to erase")
		return nil
	}
	if err := k.erase(); err != nil {
		k.logger.Warn("erase bonds failed", "error", err)
	}
	return nil
}

// Registry exposes the physical key state.
func (k *Keyboard) Registry() *keymap.Registry { return k.reg }

// Stack exposes the layer stack.
func (k *Keyboard) Stack() *keymap.Stack { return k.stack }

// Lighting exposes the renderer.
func (k *Keyboard) Lighting() *lighting.Renderer { return k.light }

// Output exposes the multiplexer.
func (k *Keyboard) Output() *output.Multiplexer { return k.out }

// Cycle runs one scan cycle. A failed matrix sample skips the cycle; an
// error from dispatch is fatal and returned.
func (k *Keyboard) Cycle(ctx context.Context) error {
	start := k.now()

	bits, err := k.reader.Sample(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if k.metrics != nil {
			k.metrics.MatrixErrors.Inc()
		}
		k.logger.Warn("matrix sample failed", "error", err)
		return nil
	}
	rising, falling := k.reg.Update(matrix.PressedIDs(bits, k.domain))

	st, err := k.disp.Step(k.reg)
	if err != nil {
		return err
	}

	frame := k.light.Render(k.reg)
	if _, err := k.strip.Write(frame.Bytes()); err != nil {
		k.logger.Warn("led frame write failed", "error", err)
	}

	if k.metrics != nil {
		k.metrics.ObserveCycle(k.now().Sub(start), st)
	}
	if rising+falling > 0 {
		k.logger.Log(ctx, ilog.LevelTrace, "scan",
			"rising", rising, "falling", falling,
			"presses", st.Presses, "releases", st.Releases, "actions", st.Actions)
	}
	return nil
}

// Run clears stale host state, then scans until ctx is done or dispatch
// fails. On the way out every transport is released and the strip blanked.
func (k *Keyboard) Run(ctx context.Context) error {
	if err := k.out.Reset(); err != nil {
		k.logger.Warn("release all on startup", "error", err)
	}
	k.logger.Info("scan loop started", "mode", k.out.Mode(), "interval", k.interval, "keys", len(k.domain))

	err := k.loop(ctx)
	k.shutdown()
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

func (k *Keyboard) loop(ctx context.Context) error {
	timer := time.NewTimer(k.interval)
	defer timer.Stop()
	for {
		if err := k.Cycle(ctx); err != nil {
			return err
		}
		timer.Reset(k.interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (k *Keyboard) shutdown() {
	if err := k.out.Reset(); err != nil {
		k.logger.Warn("release all on shutdown", "error", err)
	}
	if _, err := k.strip.Write(make(lighting.Frame, k.pixels).Bytes()); err != nil {
		k.logger.Warn("blank led strip", "error", err)
	}
	k.logger.Info("scan loop stopped")
}
