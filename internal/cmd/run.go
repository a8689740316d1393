package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/s68k/firmware/internal/board"
	"github.com/s68k/firmware/internal/firmware"
	"github.com/s68k/firmware/internal/keymap"
	"github.com/s68k/firmware/internal/log"
	"github.com/s68k/firmware/internal/matrix"
	"github.com/s68k/firmware/internal/metrics"
	"github.com/s68k/firmware/internal/output"
	"github.com/s68k/firmware/internal/strip"
	"github.com/s68k/firmware/internal/transport"
	"github.com/s68k/firmware/internal/transport/bluetooth"
	"github.com/s68k/firmware/internal/transport/serialbridge"
	"github.com/s68k/firmware/internal/transport/usbhid"
)

// USB configures the USB HID gadget transport.
type USB struct {
	Enabled bool          `help:"Use the USB HID gadget" default:"true" negatable:""`
	Device  string        `help:"HID gadget device node" default:"/dev/hidg0" env:"S68K_USB_DEVICE"`
	Timeout time.Duration `help:"Report write timeout" default:"1s"`
	Setup   bool          `help:"Create and bind the configfs gadget before first use" env:"S68K_USB_SETUP"`
	Gadget  usbhid.Gadget `embed:"" prefix:"gadget."`
}

// Serial configures the UART to USB keyboard bridge.
type Serial struct {
	Enabled bool   `help:"Use the serial bridge" default:"true" negatable:""`
	Device  string `help:"UART device node" default:"/dev/serial0" env:"S68K_SERIAL_DEVICE"`
	Baud    int    `help:"UART baud rate" default:"9600"`
}

// Bluetooth configures the BLE HID transport.
type Bluetooth struct {
	Enabled bool   `help:"Use the bluetooth adapter" default:"true" negatable:""`
	Name    string `help:"Advertised device name" default:"s68k keyboard" env:"S68K_BLUETOOTH_NAME"`
	BondDir string `help:"BlueZ storage directory holding pairings" default:"/var/lib/bluetooth"`
}

// LED configures the addressable LED strip.
type LED struct {
	Enabled bool   `help:"Drive the LED strip" default:"true" negatable:""`
	SPIPort string `help:"SPI port the strip data line hangs off" default:"/dev/spidev0.1"`
	Shared  bool   `help:"The strip shares its SPI bus with the register chain" default:"true" negatable:""`
}

// Run scans the keyboard matrix on the real hardware.
type Run struct {
	Keymap       string        `help:"Keymap file (yaml, toml or json), built-in layout when empty" type:"path" env:"S68K_KEYMAP"`
	Mode         string        `help:"Output mode at startup" enum:"usb_hid,bluetooth,serial_bridge,dummy" default:"serial_bridge" env:"S68K_MODE"`
	ScanInterval time.Duration `help:"Sleep between scan cycles" default:"5ms" env:"S68K_SCAN_INTERVAL"`
	Board        board.Config  `embed:"" prefix:"board."`
	USB          USB           `embed:"" prefix:"usb."`
	Serial       Serial        `embed:"" prefix:"serial."`
	Bluetooth    Bluetooth     `embed:"" prefix:"bluetooth."`
	LED          LED           `embed:"" prefix:"led."`
	Lighting     Lighting      `embed:"" prefix:"lighting."`
	Metrics      Metrics       `embed:"" prefix:"metrics."`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.StartFirmware(ctx, logger, rawLogger)
}

// StartFirmware opens the hardware and runs the scan loop until ctx is done.
// Only the matrix is required; every other peripheral that fails to open is
// logged and left out.
func (r *Run) StartFirmware(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	b, err := keymap.LoadBoard(r.Keymap)
	if err != nil {
		return err
	}
	mode, err := output.ParseMode(r.Mode)
	if err != nil {
		return err
	}
	light, err := r.Lighting.options()
	if err != nil {
		return err
	}

	logger.Info("Starting s68k firmware", "backend", r.Board.Backend, "mode", mode)

	hw, err := board.Open(r.Board)
	if err != nil {
		return fmt.Errorf("open matrix: %w", err)
	}
	var closers []io.Closer
	defer func() {
		for _, c := range slices.Backward(closers) {
			if err := c.Close(); err != nil {
				logger.Warn("close failed", "error", err)
			}
		}
	}()
	closers = append(closers, hw)

	m := metrics.New()
	serveMetrics(ctx, r.Metrics.Addr, m, logger)

	cfg := output.Config{Hooks: outputHooks(m)}
	if r.USB.Enabled {
		cfg.OpenUSB = func() (transport.Transport, error) {
			if r.USB.Setup {
				if err := r.USB.Gadget.Setup(logger); err != nil {
					return nil, err
				}
			}
			kb, err := usbhid.Open(r.USB.Device, r.USB.Timeout, log.For(rawLogger, "hidg"))
			if err != nil {
				return nil, err
			}
			closers = append(closers, kb)
			return kb, nil
		}
	}
	if r.Serial.Enabled {
		sb, err := serialbridge.Open(r.Serial.Device, r.Serial.Baud, log.For(rawLogger, "serial"))
		if err != nil {
			logger.Warn("serial bridge unavailable", "device", r.Serial.Device, "error", err)
		} else {
			cfg.SerialBridge = sb
			closers = append(closers, sb)
		}
	}
	var eraseBonds func() error
	if r.Bluetooth.Enabled {
		adapter, err := bluetooth.OpenAdapter(r.Bluetooth.Name)
		if err != nil {
			logger.Warn("bluetooth unavailable", "error", err)
		} else {
			logger.Info("bluetooth adapter ready", "address", adapter.Address(), "name", r.Bluetooth.Name)
			cfg.Bluetooth = bluetooth.New(adapter, log.For(rawLogger, "ble"), logger)
			if addr := adapter.Address(); addr != "" {
				eraseBonds = func() error {
					_, err := bluetooth.EraseBonds(r.Bluetooth.BondDir, addr, logger)
					return err
				}
			} else {
				logger.Warn("bluetooth adapter address unknown, erase_bonds disabled")
			}
		}
	}

	lock := &matrix.Lock{}
	var led io.Writer
	if r.LED.Enabled {
		s, err := strip.OpenNRZ(r.LED.SPIPort, len(b.Pixels))
		if err != nil {
			logger.Warn("led strip unavailable", "port", r.LED.SPIPort, "error", err)
		} else {
			closers = append(closers, s)
			led = s
			if r.LED.Shared {
				led = strip.Shared{W: s, Lock: lock}
			}
		}
	}

	out, err := output.New(cfg, mode, logger)
	if err != nil {
		return err
	}
	kb, err := firmware.New(firmware.Config{
		Board:        b,
		Bus:          hw,
		BusLock:      lock,
		Output:       out,
		Strip:        led,
		Lighting:     light,
		EraseBonds:   eraseBonds,
		Metrics:      m,
		ScanInterval: r.ScanInterval,
	}, logger)
	if err != nil {
		return err
	}

	err = kb.Run(ctx)
	if errors.Is(err, output.ErrMissingTransport) {
		logger.Error("active output mode has no transport", "mode", out.Mode())
	}
	return err
}
