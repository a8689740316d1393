// Package bluetooth is the HID-over-GATT keyboard transport. The GATT
// plumbing lives behind Radio so the transport logic runs without an adapter.
package bluetooth

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/s68k/firmware/hid"
	"github.com/s68k/firmware/internal/log"
)

const (
	DefaultName    = "s68k keyboard"
	DefaultBondDir = "/var/lib/bluetooth"
)

// Radio is a HID peripheral that can advertise and send input reports.
type Radio interface {
	StartAdvertising() error
	StopAdvertising() error
	SendReport(report []byte) error
}

// Keyboard is the bluetooth keyboard transport.
type Keyboard struct {
	mu          sync.Mutex
	radio       Radio
	report      hid.Report
	advertising bool
	raw         log.RawLogger
	logger      *slog.Logger
}

// New returns a Keyboard over radio. The radio is not advertising yet.
func New(radio Radio, raw log.RawLogger, logger *slog.Logger) *Keyboard {
	if raw == nil {
		raw = log.NewRaw(nil, "")
	}
	return &Keyboard{radio: radio, raw: raw, logger: logger}
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

func (k *Keyboard) send() error {
	buf := k.report.BuildReport()
	if err := k.radio.SendReport(buf); err != nil {
		return fmt.Errorf("bluetooth: send report: %w", err)
	}
	k.raw.Log(false, buf)
	return nil
}

func (k *Keyboard) StartAdvertising() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.advertising {
		return nil
	}
	if err := k.radio.StartAdvertising(); err != nil {
		return fmt.Errorf("bluetooth: start advertising: %w", err)
	}
	k.advertising = true
	k.logger.Info("bluetooth advertising started")
	return nil
}

func (k *Keyboard) StopAdvertising() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.advertising {
		return nil
	}
	if err := k.radio.StopAdvertising(); err != nil {
		return fmt.Errorf("bluetooth: stop advertising: %w", err)
	}
	k.advertising = false
	k.logger.Info("bluetooth advertising stopped")
	return nil
}

func (k *Keyboard) Advertising() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.advertising
}
