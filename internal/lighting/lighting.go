// Package lighting renders the per-key LED frame from registry state.
package lighting

import (
	"fmt"

	"github.com/s68k/firmware/internal/keymap"
)

// Mode selects which keys are lit.
type Mode int

const (
	// OnPress lights only the keys currently held.
	OnPress Mode = iota
	// RandomStatic lights every key with the colour of its last press.
	RandomStatic
)

// Modes lists every mode in cycling order.
var Modes = []Mode{OnPress, RandomStatic}

func (m Mode) String() string {
	switch m {
	case OnPress:
		return "on_press"
	case RandomStatic:
		return "random_static"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("lighting: unknown mode %q", s)
}

// Frame holds one colour per strip pixel, in strip order.
type Frame []keymap.RGB

// Bytes flattens the frame into an R, G, B byte stream.
func (f Frame) Bytes() []byte {
	out := make([]byte, 0, 3*len(f))
	for _, c := range f {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}

// Scale multiplies each channel by level/max, truncating.
func Scale(c keymap.RGB, level, max uint8) keymap.RGB {
	if max == 0 || level == 0 {
		return keymap.RGB{}
	}
	if level >= max {
		return c
	}
	ch := func(v uint8) uint8 { return uint8(uint16(v) * uint16(level) / uint16(max)) }
	return keymap.RGB{R: ch(c.R), G: ch(c.G), B: ch(c.B)}
}

// Renderer turns registry state into frames. The zero value is not usable;
// use New.
type Renderer struct {
	mode    Mode
	level   uint8
	max     uint8
	step    uint8
	pixelOf map[int]int
	pixels  int
}

// Options configure a Renderer.
type Options struct {
	Mode  Mode
	Level uint8
	Max   uint8
	// Step is the brightness change applied by Brighter and Dimmer.
	Step uint8
}

// New returns a Renderer for a strip wired in pixel order: pixels[i] is the
// physical id lit by strip pixel i.
func New(pixels []int, opts Options) *Renderer {
	r := &Renderer{
		mode:    opts.Mode,
		max:     opts.Max,
		step:    opts.Step,
		pixelOf: make(map[int]int, len(pixels)),
		pixels:  len(pixels),
	}
	for i, id := range pixels {
		r.pixelOf[id] = i
	}
	r.SetLevel(opts.Level)
	return r
}

func (r *Renderer) Mode() Mode { return r.mode }

func (r *Renderer) SetMode(m Mode) { r.mode = m }

// NextMode advances to the next mode, wrapping around.
func (r *Renderer) NextMode() Mode {
	for i, m := range Modes {
		if m == r.mode {
			r.mode = Modes[(i+1)%len(Modes)]
			return r.mode
		}
	}
	r.mode = Modes[0]
	return r.mode
}

func (r *Renderer) Level() uint8 { return r.level }

func (r *Renderer) Max() uint8 { return r.max }

// SetLevel sets the brightness, clamped to [0, max].
func (r *Renderer) SetLevel(level uint8) {
	r.level = min(level, r.max)
}

// Brighter raises the brightness by one step.
func (r *Renderer) Brighter() uint8 {
	r.SetLevel(uint8(min(int(r.level)+int(r.step), int(r.max))))
	return r.level
}

// Dimmer lowers the brightness by one step.
func (r *Renderer) Dimmer() uint8 {
	r.SetLevel(uint8(max(int(r.level)-int(r.step), 0)))
	return r.level
}

// Render builds the full frame for the current registry state. Pixels of
// keys that are not lit are off.
func (r *Renderer) Render(reg *keymap.Registry) Frame {
	frame := make(Frame, r.pixels)
	for _, k := range reg.Keys() {
		if r.mode == OnPress && !k.Pressed() {
			continue
		}
		i, ok := r.pixelOf[k.ID]
		if !ok {
			continue
		}
		frame[i] = Scale(k.Color(), r.level, r.max)
	}
	return frame
}
