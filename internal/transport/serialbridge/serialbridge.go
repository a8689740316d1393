// Package serialbridge drives a CH9329 UART-to-USB HID bridge chip. The
// chip enumerates as a USB keyboard on the host and types whatever general
// keyboard frames arrive on its UART.
package serialbridge

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/s68k/firmware/hid"
	"github.com/s68k/firmware/internal/log"
)

const (
	DefaultPath = "/dev/serial0"
	DefaultBaud = 9600
)

// Frame layout constants.
const (
	head0          = 0x57
	head1          = 0xAB
	addr           = 0x00
	cmdKeyboard    = 0x02
	keyboardLength = 0x08
	// FrameSize is the size of a general keyboard frame.
	FrameSize = 5 + keyboardLength + 1
)

// Checksum is the low byte of the sum of every byte in b.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}

// Frame encodes r as a general keyboard data frame.
func Frame(r hid.Report) []byte {
	f := make([]byte, 0, FrameSize)
	f = append(f, head0, head1, addr, cmdKeyboard, keyboardLength)
	f = append(f, r.BuildReport()...)
	return append(f, Checksum(f))
}

// ParseFrame decodes a general keyboard frame produced by Frame.
func ParseFrame(f []byte) (hid.Report, error) {
	var r hid.Report
	if len(f) != FrameSize {
		return r, fmt.Errorf("serialbridge: frame length %d", len(f))
	}
	if f[0] != head0 || f[1] != head1 || f[3] != cmdKeyboard || f[4] != keyboardLength {
		return r, errors.New("serialbridge: not a keyboard frame")
	}
	if sum := Checksum(f[:FrameSize-1]); sum != f[FrameSize-1] {
		return r, fmt.Errorf("serialbridge: checksum %#02x, want %#02x", f[FrameSize-1], sum)
	}
	err := r.UnmarshalBinary(f[5 : 5+keyboardLength])
	return r, err
}

// Bridge is a keyboard transport over the CH9329 UART protocol. It holds at
// most six non-modifier keys; further presses are dropped.
type Bridge struct {
	mu     sync.Mutex
	port   io.WriteCloser
	report hid.Report
	raw    log.RawLogger
}

// New wraps an open UART.
func New(port io.WriteCloser, raw log.RawLogger) *Bridge {
	if raw == nil {
		raw = log.NewRaw(nil, "")
	}
	return &Bridge{port: port, raw: raw}
}

// Open configures the UART at path for raw 8N1 at baud and wraps it.
func Open(path string, baud int, raw log.RawLogger) (*Bridge, error) {
	port, err := openPort(path, baud)
	if err != nil {
		return nil, fmt.Errorf("serialbridge: open %s: %w", path, err)
	}
	return New(port, raw), nil
}

func (b *Bridge) Press(codes ...hid.Keycode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Press(codes...)
	return b.send()
}

func (b *Bridge) Release(codes ...hid.Keycode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Release(codes...)
	return b.send()
}

func (b *Bridge) ReleaseAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.ReleaseAll()
	return b.send()
}

// Close releases every key and closes the UART.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.ReleaseAll()
	return errors.Join(b.send(), b.port.Close())
}

func (b *Bridge) send() error {
	f := Frame(b.report)
	if _, err := b.port.Write(f); err != nil {
		return fmt.Errorf("serialbridge: write frame: %w", err)
	}
	b.raw.Log(false, f)
	return nil
}
