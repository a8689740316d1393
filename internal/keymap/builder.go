package keymap

import (
	"fmt"
	"sort"

	"github.com/s68k/firmware/hid"
)

// Layer indexes in the stack built by Build.
const (
	LayerBase = 0
	LayerFn   = 1
)

// Build constructs the two-layer stack for a board. Every layer starts as
// the standard 1:1 binding of each physical key to the keycode of the same
// name; the board's remap tables then override individual keys. Commands
// bind actions onto keys of the function layer, keyed by physical name.
func Build(b *Board, reg *Registry, commands map[string]Command) (*Stack, error) {
	mod, ok := reg.ByName(b.Modifier)
	if !ok {
		return nil, fmt.Errorf("%w: modifier %q", ErrUnknownKey, b.Modifier)
	}

	base, err := standardLayer("base", reg, mod.ID)
	if err != nil {
		return nil, err
	}
	if err := remap(base, reg, b.Base); err != nil {
		return nil, err
	}

	fn, err := standardLayer("fn", reg, mod.ID)
	if err != nil {
		return nil, err
	}
	if err := remap(fn, reg, b.Fn); err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(commands) {
		pk, ok := reg.ByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: command key %q", ErrUnknownKey, name)
		}
		if pk.ID == mod.ID {
			return nil, fmt.Errorf("keymap: command %s cannot be bound to the layer modifier", commands[name].Name)
		}
		fn.set(actionKey(commands[name], pk.ID))
	}

	return &Stack{layers: []*Layer{base, fn}, modifiers: []int{mod.ID}}, nil
}

func standardLayer(name string, reg *Registry, modifier int) (*Layer, error) {
	l := &Layer{Name: name, byID: make(map[int]*VirtualKey, len(reg.Keys()))}
	for _, pk := range reg.Keys() {
		if pk.ID == modifier {
			l.set(layerKey(pk.Name, pk.ID))
			continue
		}
		code, ok := hid.Lookup(pk.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no standard keycode in layer %s", ErrUnboundKey, pk.Name, name)
		}
		l.set(forwardKey(pk.Name, code, pk.ID))
	}
	return l, nil
}

func remap(l *Layer, reg *Registry, table map[string]string) error {
	for _, from := range sortedKeys(table) {
		to := table[from]
		pk, ok := reg.ByName(from)
		if !ok {
			return fmt.Errorf("%w: %q in layer %s", ErrUnknownKey, from, l.Name)
		}
		code, ok := hid.Lookup(to)
		if !ok {
			return fmt.Errorf("%w: keycode %q for %s in layer %s", ErrUnknownKey, to, from, l.Name)
		}
		if existing, ok := l.byID[pk.ID]; ok && existing.Kind == KindLayer {
			return fmt.Errorf("keymap: layer modifier %s cannot be remapped", from)
		}
		l.set(forwardKey(code.String(), code, pk.ID))
	}
	return nil
}

// set inserts or replaces the binding for v.Physical, keeping id order.
func (l *Layer) set(v *VirtualKey) {
	if _, ok := l.byID[v.Physical]; ok {
		for i, k := range l.keys {
			if k.Physical == v.Physical {
				l.keys[i] = v
				break
			}
		}
	} else {
		i := sort.Search(len(l.keys), func(i int) bool { return l.keys[i].Physical >= v.Physical })
		l.keys = append(l.keys, nil)
		copy(l.keys[i+1:], l.keys[i:])
		l.keys[i] = v
	}
	l.byID[v.Physical] = v
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
