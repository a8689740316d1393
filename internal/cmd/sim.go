package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/s68k/firmware/internal/firmware"
	"github.com/s68k/firmware/internal/keymap"
	"github.com/s68k/firmware/internal/log"
	"github.com/s68k/firmware/internal/metrics"
	"github.com/s68k/firmware/internal/output"
	"github.com/s68k/firmware/internal/sim"
	"github.com/s68k/firmware/internal/strip"
	"github.com/s68k/firmware/internal/transport"
	"github.com/s68k/firmware/internal/transport/bluetooth"
)

// Sim runs the firmware against the terminal: keystrokes become matrix
// samples, every transport logs what it would send and the LED frame is
// drawn as a row of coloured cells.
type Sim struct {
	Keymap       string        `help:"Keymap file (yaml, toml or json), built-in layout when empty" type:"path" env:"S68K_KEYMAP"`
	Mode         string        `help:"Output mode at startup" enum:"usb_hid,bluetooth,serial_bridge,dummy" default:"serial_bridge" env:"S68K_MODE"`
	ScanInterval time.Duration `help:"Sleep between scan cycles" default:"5ms"`
	Hold         time.Duration `help:"How long one keystroke holds its keys down" default:"150ms"`
	Strip        bool          `help:"Draw the LED frame in the terminal" default:"true" negatable:""`
	Lighting     Lighting      `embed:"" prefix:"lighting."`
	Metrics      Metrics       `embed:"" prefix:"metrics."`
}

// Run is called by Kong when the sim command is executed.
func (s *Sim) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := keymap.LoadBoard(s.Keymap)
	if err != nil {
		return err
	}
	mode, err := output.ParseMode(s.Mode)
	if err != nil {
		return err
	}
	light, err := s.Lighting.options()
	if err != nil {
		return err
	}

	bus := sim.NewBus(b, s.Hold)
	tty, err := sim.Attach(os.Stdin, bus, logger)
	if err != nil {
		return err
	}
	defer func() { _ = tty.Close() }()
	go tty.Run(ctx, stop)

	m := metrics.New()
	serveMetrics(ctx, s.Metrics.Addr, m, logger)

	out, err := output.New(output.Config{
		USB:          transport.NewConsole("usb_hid", logger),
		SerialBridge: transport.NewConsole("serial_bridge", logger),
		Bluetooth:    bluetooth.New(sim.NewRadio(logger), log.For(rawLogger, "ble"), logger),
		Hooks:        outputHooks(m),
	}, mode, logger)
	if err != nil {
		return err
	}

	cfg := firmware.Config{
		Board:        b,
		Bus:          bus,
		Output:       out,
		Lighting:     light,
		EraseBonds:   func() error { logger.Info("bonds erased"); return nil },
		Metrics:      m,
		ScanInterval: s.ScanInterval,
	}
	if s.Strip {
		cfg.Strip = strip.NewTerminal(os.Stderr)
	}
	kb, err := firmware.New(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("Simulating keyboard, type to press keys, ctrl+letter holds Fn, Ctrl-C quits")
	return kb.Run(ctx)
}
