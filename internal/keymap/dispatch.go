package keymap

import (
	"fmt"
	"time"

	"github.com/s68k/firmware/hid"
)

// Output receives forwarded key transitions.
type Output interface {
	Press(codes ...hid.Keycode) error
	Release(codes ...hid.Keycode) error
}

// Stats counts what one Step dispatched.
type Stats struct {
	Presses  int
	Releases int
	Actions  int
}

// Dispatcher turns registry state into press, release and action dispatches.
//
// A virtual key latches the layer it was pressed under: until its physical
// key is released, the release is dispatched against that binding and no
// other layer presses a binding for the same physical key.
type Dispatcher struct {
	stack *Stack
	out   Output
	owner map[int]int
	now   func() time.Time
}

// NewDispatcher returns a Dispatcher forwarding to out.
func NewDispatcher(stack *Stack, out Output) *Dispatcher {
	return &Dispatcher{
		stack: stack,
		out:   out,
		owner: make(map[int]int),
		now:   time.Now,
	}
}

// Step evaluates every edge for one scan cycle. It must run after the
// registry has been updated for the cycle.
func (d *Dispatcher) Step(reg *Registry) (Stats, error) {
	var st Stats
	now := d.now()
	active := d.stack.ActiveIndex(reg)

	for li, layer := range d.stack.layers {
		if li == active {
			continue
		}
		for _, vk := range layer.keys {
			if vk.pressed && !reg.Pressed(vk.Physical) {
				if err := d.release(vk, now, &st); err != nil {
					return st, err
				}
			}
		}
	}

	for _, vk := range d.stack.layers[active].keys {
		if owner, ok := d.owner[vk.Physical]; ok && owner != active {
			continue
		}
		down := reg.Pressed(vk.Physical)
		switch {
		case down && !vk.pressed:
			d.owner[vk.Physical] = active
			if err := d.press(vk, now, &st); err != nil {
				return st, err
			}
		case !down && vk.pressed:
			if err := d.release(vk, now, &st); err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

func (d *Dispatcher) press(vk *VirtualKey, now time.Time, st *Stats) error {
	vk.pressed = true
	vk.lastUpdate = now
	switch vk.Kind {
	case KindAction:
		st.Actions++
		if vk.action == nil {
			return nil
		}
		if err := vk.action(); err != nil {
			return fmt.Errorf("keymap: action %s: %w", vk.Name, err)
		}
	case KindForward:
		st.Presses++
		if err := d.out.Press(vk.Code); err != nil {
			return fmt.Errorf("keymap: press %s: %w", vk.Name, err)
		}
	}
	return nil
}

func (d *Dispatcher) release(vk *VirtualKey, now time.Time, st *Stats) error {
	vk.pressed = false
	vk.lastUpdate = now
	delete(d.owner, vk.Physical)
	if vk.Kind != KindForward {
		return nil
	}
	st.Releases++
	if err := d.out.Release(vk.Code); err != nil {
		return fmt.Errorf("keymap: release %s: %w", vk.Name, err)
	}
	return nil
}
