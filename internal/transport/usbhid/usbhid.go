// Package usbhid sends boot keyboard reports through a Linux USB HID gadget
// function such as /dev/hidg0.
package usbhid

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/s68k/firmware/hid"
	"github.com/s68k/firmware/internal/log"
)

const (
	DefaultPath    = "/dev/hidg0"
	DefaultTimeout = time.Second
)

type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Keyboard tracks the held keys and writes the full report on every change.
type Keyboard struct {
	mu      sync.Mutex
	dev     io.WriteCloser
	report  hid.Report
	timeout time.Duration
	raw     log.RawLogger
}

// Open opens the gadget device at path. A host that stops reading makes
// writes fail after timeout instead of blocking the scan loop.
func Open(path string, timeout time.Duration, raw log.RawLogger) (*Keyboard, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("usbhid: open %s: %w", path, err)
	}
	return New(f, timeout, raw), nil
}

// New wraps an already open device.
func New(dev io.WriteCloser, timeout time.Duration, raw log.RawLogger) *Keyboard {
	if raw == nil {
		raw = log.NewRaw(nil, "")
	}
	return &Keyboard{dev: dev, timeout: timeout, raw: raw}
}

func (k *Keyboard) Press(codes ...hid.Keycode) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.report.Press(codes...)
	return k.send()
}

func (k *Keyboard) Release(codes ...hid.Keycode) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.report.Release(codes...)
	return k.send()
}

func (k *Keyboard) ReleaseAll() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.report.ReleaseAll()
	return k.send()
}

// Held returns the keys the host currently sees pressed.
func (k *Keyboard) Held() []hid.Keycode {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.report.Held()
}

// Close releases every key and closes the device.
func (k *Keyboard) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.report.ReleaseAll()
	return errors.Join(k.send(), k.dev.Close())
}

func (k *Keyboard) send() error {
	buf := k.report.BuildReport()
	if d, ok := k.dev.(deadliner); ok && k.timeout > 0 {
		if err := d.SetWriteDeadline(time.Now().Add(k.timeout)); err != nil && !errors.Is(err, os.ErrNoDeadline) {
			return fmt.Errorf("usbhid: set deadline: %w", err)
		}
	}
	n, err := k.dev.Write(buf)
	if err == nil && n != len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("usbhid: write report: %w", err)
	}
	k.raw.Log(false, buf)
	return nil
}
