package board

import (
	"errors"
	"fmt"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIO is the go-rpio backend. It maps the BCM2835 registers through
// /dev/gpiomem and drives SPI0 directly, so it only runs on a Raspberry Pi.
type RPIO struct {
	load  rpio.Pin
	pulse time.Duration
}

// OpenRPIO maps the GPIO registers, sets the power pins and starts SPI0.
func OpenRPIO(cfg Config) (*RPIO, error) {
	if cfg.Pins.Load < 0 {
		return nil, errors.New("board: a load pin is required")
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("board: open rpio: %w", err)
	}
	drive := func(n int, high bool) {
		if n < 0 {
			return
		}
		p := rpio.Pin(n)
		p.Output()
		if high {
			p.High()
		} else {
			p.Low()
		}
	}
	drive(cfg.Pins.ChipEnable, false)
	drive(cfg.Pins.LEDPower, true)
	drive(cfg.Pins.Gate, true)
	drive(cfg.Pins.Load, true)

	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		_ = rpio.Close()
		return nil, fmt.Errorf("board: begin spi0: %w", err)
	}
	rpio.SpiSpeed(cfg.SPIFreq)
	rpio.SpiChipSelect(0)
	rpio.SpiMode(0, 0)

	return &RPIO{load: rpio.Pin(cfg.Pins.Load), pulse: cfg.Pulse}, nil
}

func (b *RPIO) Load() error {
	b.load.Low()
	if b.pulse > 0 {
		time.Sleep(b.pulse)
	}
	b.load.High()
	return nil
}

func (b *RPIO) Read(p []byte) (int, error) {
	return copy(p, rpio.SpiReceive(len(p))), nil
}

func (b *RPIO) Close() error {
	rpio.SpiEnd(rpio.Spi0)
	return rpio.Close()
}
