package lighting

import (
	"math/rand/v2"
	"testing"

	"github.com/s68k/firmware/internal/keymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name       string
		in         keymap.RGB
		level, max uint8
		want       keymap.RGB
	}{
		{"quarter", keymap.RGB{R: 200, G: 100, B: 50}, 64, 255, keymap.RGB{R: 50, G: 25, B: 12}},
		{"full", keymap.RGB{R: 200, G: 100, B: 50}, 255, 255, keymap.RGB{R: 200, G: 100, B: 50}},
		{"off", keymap.RGB{R: 200, G: 100, B: 50}, 0, 255, keymap.RGB{}},
		{"zero max", keymap.RGB{R: 9}, 0, 0, keymap.RGB{}},
		{"small max", keymap.RGB{R: 16, G: 8, B: 1}, 8, 16, keymap.RGB{R: 8, G: 4, B: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scale(tt.in, tt.level, tt.max))
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("rainbow")
	assert.Error(t, err)
}

func TestBrightnessSteps(t *testing.T) {
	r := New(nil, Options{Level: 200, Max: 255, Step: 32})
	assert.Equal(t, uint8(232), r.Brighter())
	assert.Equal(t, uint8(255), r.Brighter())
	assert.Equal(t, uint8(255), r.Brighter())

	r.SetLevel(40)
	assert.Equal(t, uint8(8), r.Dimmer())
	assert.Equal(t, uint8(0), r.Dimmer())

	r = New(nil, Options{Level: 200, Max: 100})
	assert.Equal(t, uint8(100), r.Level(), "level clamps to max")
}

func TestNextModeCycles(t *testing.T) {
	r := New(nil, Options{Max: 255})
	assert.Equal(t, OnPress, r.Mode())
	assert.Equal(t, RandomStatic, r.NextMode())
	assert.Equal(t, OnPress, r.NextMode())
}

func newRegistry(t *testing.T) *keymap.Registry {
	t.Helper()
	reg, err := keymap.NewRegistry(map[string]int{"A": 4, "B": 7, "C": 9}, 255, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	return reg
}

func TestRenderOnPressUsesPixelOrder(t *testing.T) {
	reg := newRegistry(t)
	// Strip pixel 0 is wired to key 9, pixel 1 to key 4, pixel 2 to key 7.
	r := New([]int{9, 4, 7}, Options{Mode: OnPress, Level: 255, Max: 255})

	assert.Equal(t, Frame{{}, {}, {}}, r.Render(reg), "nothing pressed renders all off")

	reg.Update([]int{4})
	a, _ := reg.Key(4)
	frame := r.Render(reg)
	assert.Equal(t, Frame{{}, a.Color(), {}}, frame)

	reg.Update(nil)
	assert.Equal(t, Frame{{}, {}, {}}, r.Render(reg), "released keys go dark")
}

func TestRenderRandomStaticKeepsLastColour(t *testing.T) {
	reg := newRegistry(t)
	r := New([]int{9, 4, 7}, Options{Mode: RandomStatic, Level: 128, Max: 255})

	reg.Update([]int{7})
	reg.Update(nil)
	b, _ := reg.Key(7)
	frame := r.Render(reg)
	assert.Equal(t, Scale(b.Color(), 128, 255), frame[2])
	assert.Equal(t, keymap.RGB{}, frame[0], "never pressed keys have no colour")
}

func TestRenderDoesNotMutateStoredColour(t *testing.T) {
	reg := newRegistry(t)
	r := New([]int{4}, Options{Mode: OnPress, Level: 1, Max: 255})
	reg.Update([]int{4})
	k, _ := reg.Key(4)
	before := k.Color()
	r.Render(reg)
	assert.Equal(t, before, k.Color())
}

func TestFrameBytes(t *testing.T) {
	f := Frame{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}}
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, f.Bytes())
}
