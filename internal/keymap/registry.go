package keymap

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

// PhysicalKey is one switch location on the matrix.
type PhysicalKey struct {
	ID   int
	Name string

	pressed bool
	color   RGB
}

// Pressed reports the key state sampled in the current cycle.
func (k *PhysicalKey) Pressed() bool { return k.pressed }

// Color returns the colour assigned on the key's most recent press.
func (k *PhysicalKey) Color() RGB { return k.color }

// Registry owns every PhysicalKey for the lifetime of the process. Keys are
// stored in ascending id order and addressed by id.
type Registry struct {
	keys     []*PhysicalKey
	byID     map[int]*PhysicalKey
	byName   map[string]*PhysicalKey
	maxLevel uint8
	rng      *rand.Rand
}

// NewRegistry builds the registry from a name->id table. Colours assigned on
// press are uniform per channel in [0, maxLevel]. A nil rng seeds a fresh one.
func NewRegistry(table map[string]int, maxLevel uint8, rng *rand.Rand) (*Registry, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	r := &Registry{
		byID:     make(map[int]*PhysicalKey, len(table)),
		byName:   make(map[string]*PhysicalKey, len(table)),
		maxLevel: maxLevel,
		rng:      rng,
	}
	for name, id := range table {
		if other, ok := r.byID[id]; ok {
			return nil, fmt.Errorf("keymap: keys %s and %s share id %d", other.Name, name, id)
		}
		k := &PhysicalKey{ID: id, Name: name}
		r.keys = append(r.keys, k)
		r.byID[id] = k
		r.byName[name] = k
	}
	sort.Slice(r.keys, func(i, j int) bool { return r.keys[i].ID < r.keys[j].ID })
	return r, nil
}

// Keys returns every key in ascending id order.
func (r *Registry) Keys() []*PhysicalKey { return r.keys }

// IDs returns the configured id domain in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, len(r.keys))
	for i, k := range r.keys {
		ids[i] = k.ID
	}
	return ids
}

// Key returns the key with the given id.
func (r *Registry) Key(id int) (*PhysicalKey, bool) {
	k, ok := r.byID[id]
	return k, ok
}

// ByName returns the key with the given name.
func (r *Registry) ByName(name string) (*PhysicalKey, bool) {
	k, ok := r.byName[name]
	return k, ok
}

// Pressed reports whether the key with the given id is down this cycle.
func (r *Registry) Pressed(id int) bool {
	k, ok := r.byID[id]
	return ok && k.pressed
}

// Update applies one cycle's pressed id set. A key that goes down gets a new
// random colour exactly once; holding it changes nothing.
func (r *Registry) Update(pressedIDs []int) (rising, falling int) {
	down := make(map[int]struct{}, len(pressedIDs))
	for _, id := range pressedIDs {
		down[id] = struct{}{}
	}
	for _, k := range r.keys {
		_, isDown := down[k.ID]
		switch {
		case isDown && !k.pressed:
			k.pressed = true
			k.color = r.randomColor()
			rising++
		case !isDown && k.pressed:
			k.pressed = false
			falling++
		}
	}
	return rising, falling
}

func (r *Registry) randomColor() RGB {
	n := int(r.maxLevel) + 1
	return RGB{
		R: uint8(r.rng.IntN(n)),
		G: uint8(r.rng.IntN(n)),
		B: uint8(r.rng.IntN(n)),
	}
}
