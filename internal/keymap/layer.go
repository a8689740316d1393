package keymap

import (
	"time"

	"github.com/s68k/firmware/hid"
)

// Kind selects what a VirtualKey does on a transition.
type Kind uint8

const (
	// KindForward sends Code to the output on press and release.
	KindForward Kind = iota
	// KindAction runs an Action once on press and sends nothing.
	KindAction
	// KindLayer marks the layer modifier itself; it sends nothing.
	KindLayer
)

func (k Kind) String() string {
	switch k {
	case KindForward:
		return "forward"
	case KindAction:
		return "action"
	case KindLayer:
		return "layer"
	default:
		return "unknown"
	}
}

// Action is a side-effecting command bound to a key in the function layer.
// It runs synchronously inside the scan loop.
type Action func() error

// Command names an Action for logs and keymap dumps.
type Command struct {
	Name string
	Run  Action
}

// VirtualKey is the logical meaning of a physical key within one layer. It
// refers to its physical key by id; the Registry owns the key itself.
type VirtualKey struct {
	Name     string
	Kind     Kind
	Code     hid.Keycode
	Physical int

	action     Action
	pressed    bool
	lastUpdate time.Time
}

func forwardKey(name string, code hid.Keycode, physical int) *VirtualKey {
	return &VirtualKey{Name: name, Kind: KindForward, Code: code, Physical: physical}
}

func actionKey(cmd Command, physical int) *VirtualKey {
	return &VirtualKey{Name: cmd.Name, Kind: KindAction, Physical: physical, action: cmd.Run}
}

func layerKey(name string, physical int) *VirtualKey {
	return &VirtualKey{Name: name, Kind: KindLayer, Physical: physical}
}

// Pressed reports the virtual-level edge memory.
func (v *VirtualKey) Pressed() bool { return v.pressed }

// LastUpdate returns the time of the last edge.
func (v *VirtualKey) LastUpdate() time.Time { return v.lastUpdate }

// Layer maps every physical id of the board to exactly one VirtualKey.
type Layer struct {
	Name string
	keys []*VirtualKey
	byID map[int]*VirtualKey
}

// Keys returns the layer's virtual keys in ascending physical id order.
func (l *Layer) Keys() []*VirtualKey { return l.keys }

// Lookup returns the binding for a physical id.
func (l *Layer) Lookup(id int) (*VirtualKey, bool) {
	v, ok := l.byID[id]
	return v, ok
}

// Stack is the ordered layer list plus the modifier keys that select among
// them. Bit i of the active index is set while modifiers[i] is held.
type Stack struct {
	layers    []*Layer
	modifiers []int
}

// Layers returns the layers in index order.
func (s *Stack) Layers() []*Layer { return s.layers }

// ActiveIndex derives the active layer from the modifier keys' live state.
func (s *Stack) ActiveIndex(reg *Registry) int {
	idx := 0
	for bit, id := range s.modifiers {
		if reg.Pressed(id) {
			idx |= 1 << bit
		}
	}
	if idx >= len(s.layers) {
		idx = len(s.layers) - 1
	}
	return idx
}

// Active returns the layer selected by the current modifier state.
func (s *Stack) Active(reg *Registry) *Layer {
	return s.layers[s.ActiveIndex(reg)]
}
