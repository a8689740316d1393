// Package output multiplexes key events over the interchangeable host
// transports. Exactly one mode is active at a time.
package output

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/s68k/firmware/hid"
	"github.com/s68k/firmware/internal/transport"
)

var (
	// ErrUnsupportedMode is returned for a mode name the multiplexer does not know.
	ErrUnsupportedMode = errors.New("output: unsupported mode")
	// ErrMissingTransport is returned when the active mode has no transport.
	ErrMissingTransport = errors.New("output: transport missing for active mode")
)

// Mode selects the transport key events are sent over.
type Mode string

const (
	ModeUSB          Mode = "usb_hid"
	ModeBluetooth    Mode = "bluetooth"
	ModeSerialBridge Mode = "serial_bridge"
	ModeDummy        Mode = "dummy"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeUSB, ModeBluetooth, ModeSerialBridge, ModeDummy}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

// Opener acquires a transport on demand.
type Opener func() (transport.Transport, error)

// Hooks observe multiplexer state changes. Nil hooks are skipped.
type Hooks struct {
	ModeChanged     func(Mode)
	TransportFailed func(name string)
}

// Config wires transports into a Multiplexer. A nil transport is treated as
// unavailable.
type Config struct {
	USB          transport.Transport
	OpenUSB      Opener
	SerialBridge transport.Transport
	Bluetooth    transport.Transport
	Hooks        Hooks
}

// Multiplexer routes press and release events to the transport bound to the
// current mode.
type Multiplexer struct {
	mode    Mode
	usb     transport.Transport
	openUSB Opener
	bridge  transport.Transport
	ble     transport.Transport
	adv     transport.Advertiser
	hooks   Hooks
	logger  *slog.Logger
}

// New builds a Multiplexer and switches it into the start mode.
func New(cfg Config, start Mode, logger *slog.Logger) (*Multiplexer, error) {
	m := &Multiplexer{
		mode:    ModeDummy,
		usb:     orUnavailable(cfg.USB, "usb_hid"),
		openUSB: cfg.OpenUSB,
		bridge:  orUnavailable(cfg.SerialBridge, "serial_bridge"),
		ble:     orUnavailable(cfg.Bluetooth, "bluetooth"),
		hooks:   cfg.Hooks,
		logger:  logger,
	}
	if adv, ok := cfg.Bluetooth.(transport.Advertiser); ok {
		m.adv = adv
	}
	if err := m.SetMode(start); err != nil {
		return nil, err
	}
	return m, nil
}

func orUnavailable(t transport.Transport, name string) transport.Transport {
	if t == nil {
		return transport.Unavailable{Name: name}
	}
	return t
}

// Mode returns the active mode.
func (m *Multiplexer) Mode() Mode { return m.mode }

// Advertising reports whether the bluetooth transport is advertising.
func (m *Multiplexer) Advertising() bool {
	return m.adv != nil && m.adv.Advertising()
}

// SetMode switches the active transport. Entering bluetooth starts
// advertising, leaving it stops advertising. Entering usb_hid without a live
// USB transport tries to open one and falls back to dummy on failure. When
// the mode actually changes, every key is released on the outgoing transport.
//
// SetMode may change radio state; call it on a mode-change trigger only.
func (m *Multiplexer) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	prev := m.mode

	switch {
	case mode == ModeBluetooth && prev != ModeBluetooth:
		if m.adv == nil {
			m.logger.Warn("bluetooth transport unavailable, not advertising")
		} else if !m.adv.Advertising() {
			if err := m.adv.StartAdvertising(); err != nil {
				m.logger.Warn("start advertising failed, falling back to dummy", "error", err)
				m.failed("bluetooth")
				mode = ModeDummy
			}
		}
	case prev == ModeBluetooth && mode != ModeBluetooth:
		m.stopAdvertising()
	}

	m.mode = mode

	if mode == ModeUSB && !transport.IsAvailable(m.usb) {
		if m.openUSB != nil {
			t, err := m.openUSB()
			if err != nil {
				m.logger.Warn("usb hid unavailable, falling back to dummy", "error", err)
			} else {
				m.usb = t
			}
		}
		if !transport.IsAvailable(m.usb) {
			m.mode = ModeDummy
		}
	}

	if m.mode != prev {
		m.releaseOutgoing(prev)
		m.logger.Info("output mode changed", "from", prev, "to", m.mode)
	}
	if m.hooks.ModeChanged != nil {
		m.hooks.ModeChanged(m.mode)
	}
	return nil
}

// stopAdvertising tries twice; a radio that keeps advertising is reported
// as a bluetooth failure.
func (m *Multiplexer) stopAdvertising() {
	if m.adv == nil || !m.adv.Advertising() {
		return
	}
	err := m.adv.StopAdvertising()
	if err != nil {
		err = m.adv.StopAdvertising()
	}
	if err != nil {
		m.logger.Warn("stop advertising failed", "error", err)
		m.failed("bluetooth")
	}
}

// releaseOutgoing lifts every key the previous mode's host may still hold.
// Releases of those keys reach the new transport only.
func (m *Multiplexer) releaseOutgoing(prev Mode) {
	t := m.transportFor(prev)
	if !transport.IsAvailable(t) {
		return
	}
	if err := t.ReleaseAll(); err != nil {
		m.logger.Debug("release all on mode change", "mode", prev, "error", err)
	}
}

func (m *Multiplexer) transportFor(mode Mode) transport.Transport {
	switch mode {
	case ModeUSB:
		return m.usb
	case ModeSerialBridge:
		return m.bridge
	case ModeBluetooth:
		return m.ble
	default:
		return nil
	}
}

// Press sends a press of codes over the active transport.
func (m *Multiplexer) Press(codes ...hid.Keycode) error {
	return m.dispatch(true, codes)
}

// Release sends a release of codes over the active transport.
func (m *Multiplexer) Release(codes ...hid.Keycode) error {
	return m.dispatch(false, codes)
}

func (m *Multiplexer) dispatch(press bool, codes []hid.Keycode) error {
	send := func(t transport.Transport, codes []hid.Keycode) error {
		if press {
			return t.Press(codes...)
		}
		return t.Release(codes...)
	}

	switch m.mode {
	case ModeUSB:
		if !transport.IsAvailable(m.usb) {
			return fmt.Errorf("%w: %s", ErrMissingTransport, m.mode)
		}
		if err := send(m.usb, codes); err != nil {
			m.logger.Warn("usb hid write failed, falling back to dummy", "error", err)
			m.failed("usb_hid")
			return m.SetMode(ModeDummy)
		}
	case ModeSerialBridge:
		if !transport.IsAvailable(m.bridge) {
			m.logger.Debug("serial bridge unavailable, dropping event", "codes", codes)
			return nil
		}
		if err := send(m.bridge, codes); err != nil {
			m.logger.Warn("serial bridge write failed", "error", err)
			m.failed("serial_bridge")
		}
	case ModeBluetooth:
		if !transport.IsAvailable(m.ble) {
			return fmt.Errorf("%w: %s", ErrMissingTransport, m.mode)
		}
		if err := send(m.ble, codes); err != nil {
			m.logger.Warn("bluetooth report failed", "error", err)
			m.failed("bluetooth")
		}
	case ModeDummy:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, m.mode)
	}
	return nil
}

// Reset releases every key on every live transport, regardless of mode, to
// clear keys left stuck on a host by a previous session.
func (m *Multiplexer) Reset() error {
	var errs []error
	for _, t := range []transport.Transport{m.usb, m.bridge, m.ble} {
		if !transport.IsAvailable(t) {
			continue
		}
		if err := t.ReleaseAll(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multiplexer) failed(name string) {
	if m.hooks.TransportFailed != nil {
		m.hooks.TransportFailed(name)
	}
}
