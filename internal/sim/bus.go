package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/s68k/firmware/internal/keymap"
)

// DefaultHold is how long a keystroke keeps its keys down. Terminal
// autorepeat extends it while a key is held.
const DefaultHold = 150 * time.Millisecond

// Bus is a virtual shift register chain. Keys fed to it stay down until their
// hold expires.
type Bus struct {
	mu        sync.Mutex
	registers int
	ids       map[string]int
	held      map[int]time.Time
	hold      time.Duration
	latched   []byte
	now       func() time.Time
}

// NewBus returns an idle chain sized for b.
func NewBus(b *keymap.Board, hold time.Duration) *Bus {
	if hold <= 0 {
		hold = DefaultHold
	}
	bus := &Bus{
		registers: b.Registers,
		ids:       make(map[string]int, len(b.Keys)),
		held:      make(map[int]time.Time),
		hold:      hold,
		now:       time.Now,
	}
	for name, id := range b.Keys {
		bus.ids[name] = id
	}
	bus.latched = bus.sample(bus.now())
	return bus
}

// Press holds the named physical keys for one hold period.
func (b *Bus) Press(names ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	until := b.now().Add(b.hold)
	for _, n := range names {
		id, ok := b.ids[n]
		if !ok {
			return fmt.Errorf("%w: %s", keymap.ErrUnknownKey, n)
		}
		b.held[id] = until
	}
	return nil
}

// Load latches the keys currently held.
func (b *Bus) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latched = b.sample(b.now())
	return nil
}

func (b *Bus) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copy(p, b.latched), nil
}

func (b *Bus) sample(now time.Time) []byte {
	out := make([]byte, b.registers)
	for i := range out {
		out[i] = 0xFF
	}
	for id, until := range b.held {
		if !now.Before(until) {
			delete(b.held, id)
			continue
		}
		if id/8 < len(out) {
			out[id/8] &^= 1 << (7 - id%8)
		}
	}
	return out
}
