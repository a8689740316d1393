// Package matrix samples the key matrix through a chain of parallel-in
// serial-out shift registers.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrShortRead is returned when the bus delivers fewer bytes than the chain holds.
var ErrShortRead = errors.New("matrix: short read from shift registers")

// Bus is the shared synchronous serial bus the register chain hangs off.
type Bus interface {
	// Load pulses the parallel-load line low then high, latching every input.
	Load() error
	// Read clocks len(p) bytes out of the chain, MSB first per byte.
	Read(p []byte) (int, error)
}

// Lock guards exclusive access to a Bus shared with other peripherals.
type Lock struct {
	mu sync.Mutex
}

// TryLock acquires the lock without blocking.
func (l *Lock) TryLock() bool { return l.mu.TryLock() }

// Unlock releases the lock.
func (l *Lock) Unlock() { l.mu.Unlock() }

// Acquire spins until the lock is held. The spin has no timeout; it only
// gives up when ctx is cancelled.
func (l *Lock) Acquire(ctx context.Context) error {
	for !l.mu.TryLock() {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

// Bits is one sample of the chain: Bits[i] is the level of register bit i,
// where 0 means the key at that position is pressed.
type Bits []uint8

// Reader samples the register chain.
type Reader struct {
	bus       Bus
	lock      *Lock
	registers int
	buf       []byte
}

// NewReader returns a Reader for a chain of registers 8-bit registers. A nil
// lock means the bus is not shared.
func NewReader(bus Bus, lock *Lock, registers int) *Reader {
	if lock == nil {
		lock = &Lock{}
	}
	return &Reader{
		bus:       bus,
		lock:      lock,
		registers: registers,
		buf:       make([]byte, registers),
	}
}

// Width returns the number of bits in one sample.
func (r *Reader) Width() int { return r.registers * 8 }

// Sample latches the inputs and shifts out register_count*8 bits.
func (r *Reader) Sample(ctx context.Context) (Bits, error) {
	if err := r.bus.Load(); err != nil {
		return nil, fmt.Errorf("matrix: parallel load: %w", err)
	}

	if err := r.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	n, err := r.bus.Read(r.buf)
	r.lock.Unlock()
	if err != nil {
		return nil, fmt.Errorf("matrix: shift in: %w", err)
	}
	if n < len(r.buf) {
		return nil, ErrShortRead
	}
	return Decode(r.buf), nil
}

// Decode expands register bytes into bits, MSB first per byte.
func Decode(raw []byte) Bits {
	bits := make(Bits, 0, len(raw)*8)
	for _, b := range raw {
		for i := 0; i < 8; i++ {
			bits = append(bits, (b>>(7-i))&1)
		}
	}
	return bits
}

// PressedIDs returns the ids from domain whose bit is 0, in domain order.
// Ids outside the sample width are never reported.
func PressedIDs(bits Bits, domain []int) []int {
	var out []int
	for _, id := range domain {
		if id < 0 || id >= len(bits) {
			continue
		}
		if bits[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}
