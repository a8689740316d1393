package board

import (
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Periph is the periph.io backend. It works on any board periph supports.
type Periph struct {
	load  gpio.PinOut
	conn  spi.Conn
	port  io.Closer
	pulse time.Duration
	tx    []byte
}

// OpenPeriph initialises periph, sets the power pins and connects the SPI port.
func OpenPeriph(cfg Config) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("board: init periph host: %w", err)
	}
	pin := func(n int) (gpio.PinOut, error) {
		if n < 0 {
			return nil, nil
		}
		p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
		if p == nil {
			return nil, fmt.Errorf("board: no such pin GPIO%d", n)
		}
		return p, nil
	}

	levels := []struct {
		n int
		l gpio.Level
	}{
		{cfg.Pins.ChipEnable, gpio.Low},
		{cfg.Pins.LEDPower, gpio.High},
		{cfg.Pins.Gate, gpio.High},
	}
	for _, pl := range levels {
		p, err := pin(pl.n)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		if err := p.Out(pl.l); err != nil {
			return nil, fmt.Errorf("board: drive %s: %w", p, err)
		}
	}

	load, err := pin(cfg.Pins.Load)
	if err != nil {
		return nil, err
	}
	if load == nil {
		return nil, errors.New("board: a load pin is required")
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("board: open %s: %w", cfg.SPIPort, err)
	}
	conn, err := port.Connect(physic.Frequency(cfg.SPIFreq)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("board: connect %s: %w", cfg.SPIPort, err)
	}
	return newPeriph(load, conn, port, cfg.Pulse)
}

func newPeriph(load gpio.PinOut, conn spi.Conn, port io.Closer, pulse time.Duration) (*Periph, error) {
	if err := load.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("board: drive load pin: %w", err)
	}
	return &Periph{load: load, conn: conn, port: port, pulse: pulse}, nil
}

func (b *Periph) Load() error {
	if err := b.load.Out(gpio.Low); err != nil {
		return err
	}
	if b.pulse > 0 {
		time.Sleep(b.pulse)
	}
	return b.load.Out(gpio.High)
}

func (b *Periph) Read(p []byte) (int, error) {
	if cap(b.tx) < len(p) {
		b.tx = make([]byte, len(p))
	}
	if err := b.conn.Tx(b.tx[:len(p)], p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *Periph) Close() error {
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}
