package keymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

var (
	// ErrUnknownKey is returned for a name that is neither a physical key nor a keycode.
	ErrUnknownKey = errors.New("keymap: unknown key")
	// ErrUnboundKey is returned when a physical key has no binding in a layer.
	ErrUnboundKey = errors.New("keymap: physical key has no binding")
)

// Board is the pre-loaded keymap configuration: physical key identities,
// strip wiring order, and the remap tables for each layer.
type Board struct {
	// Registers is the number of 8-bit shift registers in the chain.
	Registers int `json:"registers" yaml:"registers" toml:"registers"`
	// Modifier names the physical key that selects the function layer.
	Modifier string `json:"modifier" yaml:"modifier" toml:"modifier"`
	// Keys maps physical key names to matrix bit positions.
	Keys map[string]int `json:"keys" yaml:"keys" toml:"keys"`
	// Pixels lists the physical id lit by each strip pixel, in strip order.
	Pixels []int `json:"pixels" yaml:"pixels" toml:"pixels"`
	// Base remaps physical names to keycode names in layer 0.
	Base map[string]string `json:"base" yaml:"base" toml:"base"`
	// Fn remaps physical names to keycode names in layer 1.
	Fn map[string]string `json:"fn" yaml:"fn" toml:"fn"`
	// Commands binds physical names in layer 1 to firmware commands.
	Commands map[string]string `json:"commands" yaml:"commands" toml:"commands"`
}

// LoadBoard reads a keymap file. The format is chosen by extension:
// .yaml/.yml, .toml, or .json. An empty path returns the default board.
func LoadBoard(path string) (*Board, error) {
	if path == "" {
		return DefaultBoard(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keymap: read %s: %w", path, err)
	}

	var b Board
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &b)
	case ".toml":
		err = toml.Unmarshal(data, &b)
	case ".json":
		err = json.Unmarshal(data, &b)
	default:
		return nil, fmt.Errorf("keymap: unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("keymap: parse %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Marshal encodes the board in the given format (json, yaml or toml).
func (b *Board) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(b, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(b)
	case "toml":
		return toml.Marshal(*b)
	default:
		return nil, fmt.Errorf("keymap: unsupported format %q", format)
	}
}

// Validate checks the structural invariants of a board: unique ids inside
// the register chain, a known modifier, and a strip order that only refers
// to known keys.
func (b *Board) Validate() error {
	if b.Registers <= 0 {
		return fmt.Errorf("keymap: register count must be positive, got %d", b.Registers)
	}
	if len(b.Keys) == 0 {
		return errors.New("keymap: no physical keys defined")
	}
	width := b.Registers * 8
	seen := make(map[int]string, len(b.Keys))
	for name, id := range b.Keys {
		if id < 0 || id >= width {
			return fmt.Errorf("keymap: key %s id %d outside register chain of %d bits", name, id, width)
		}
		if other, ok := seen[id]; ok {
			return fmt.Errorf("keymap: keys %s and %s share id %d", other, name, id)
		}
		seen[id] = name
	}
	if _, ok := b.Keys[b.Modifier]; !ok {
		return fmt.Errorf("%w: modifier %q", ErrUnknownKey, b.Modifier)
	}
	lit := make(map[int]bool, len(b.Pixels))
	for i, id := range b.Pixels {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("keymap: pixel %d refers to unknown id %d", i, id)
		}
		if lit[id] {
			return fmt.Errorf("keymap: id %d wired to more than one pixel", id)
		}
		lit[id] = true
	}
	return nil
}

// IDs returns the physical id domain in ascending order.
func (b *Board) IDs() []int {
	ids := make([]int, 0, len(b.Keys))
	for _, id := range b.Keys {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
