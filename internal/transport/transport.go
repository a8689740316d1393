// Package transport defines the contract shared by every channel that
// delivers key events to a host.
package transport

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/s68k/firmware/hid"
)

// ErrUnavailable is returned by the Unavailable transport.
var ErrUnavailable = errors.New("transport: unavailable")

// Transport delivers key press and release events to a host.
type Transport interface {
	Press(codes ...hid.Keycode) error
	Release(codes ...hid.Keycode) error
	ReleaseAll() error
}

// Advertiser is implemented by transports that must announce themselves
// before a host can connect.
type Advertiser interface {
	StartAdvertising() error
	StopAdvertising() error
	Advertising() bool
}

// Unavailable stands in for a transport whose hardware could not be opened.
type Unavailable struct {
	Name string
}

func (u Unavailable) Press(...hid.Keycode) error   { return u.err() }
func (u Unavailable) Release(...hid.Keycode) error { return u.err() }
func (u Unavailable) ReleaseAll() error            { return u.err() }

func (u Unavailable) err() error {
	if u.Name == "" {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, u.Name)
}

// IsAvailable reports whether t is a live transport.
func IsAvailable(t Transport) bool {
	if t == nil {
		return false
	}
	_, unavailable := t.(Unavailable)
	return !unavailable
}

// Console logs every event instead of sending it anywhere. The simulator
// binds it where real hardware would be.
type Console struct {
	name   string
	logger *slog.Logger
	report hid.Report
}

// NewConsole returns a Console transport logging under the given name.
func NewConsole(name string, logger *slog.Logger) *Console {
	return &Console{name: name, logger: logger}
}

func (c *Console) Press(codes ...hid.Keycode) error {
	c.report.Press(codes...)
	c.logger.Info("key press", "transport", c.name, "codes", codes, "held", c.report.Held())
	return nil
}

func (c *Console) Release(codes ...hid.Keycode) error {
	c.report.Release(codes...)
	c.logger.Info("key release", "transport", c.name, "codes", codes, "held", c.report.Held())
	return nil
}

func (c *Console) ReleaseAll() error {
	c.report.ReleaseAll()
	c.logger.Debug("release all", "transport", c.name)
	return nil
}
