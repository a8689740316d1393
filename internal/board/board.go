// Package board opens the keyboard's GPIO and SPI hardware. Each backend
// drives the power pins into their running state and exposes the shift
// register chain as a matrix.Bus.
package board

import (
	"fmt"
	"io"
	"time"

	"github.com/s68k/firmware/internal/matrix"
)

// Board is an opened backend.
type Board interface {
	matrix.Bus
	io.Closer
}

// Pins holds BCM GPIO numbers. A negative number leaves that line alone.
type Pins struct {
	Load       int `help:"Parallel-load pin of the shift register chain" default:"8"`
	ChipEnable int `help:"Shift register clock-enable pin, driven low" default:"10"`
	LEDPower   int `help:"LED strip power enable pin, driven high" default:"2"`
	Gate       int `help:"MOSFET gate pin, driven high" default:"3"`
}

// Config selects and configures a backend.
type Config struct {
	Backend string        `help:"GPIO/SPI backend" enum:"periph,rpio" default:"periph" env:"S68K_BOARD_BACKEND"`
	SPIPort string        `help:"SPI port the shift register chain is read from (periph backend)" default:"/dev/spidev0.0"`
	SPIFreq int           `help:"SPI clock for the shift register chain in Hz" default:"1000000"`
	Pulse   time.Duration `help:"Width of the parallel-load pulse" default:"1us"`
	Pins    Pins          `embed:"" prefix:"pin."`
}

// Open opens the backend named by cfg.Backend.
func Open(cfg Config) (Board, error) {
	switch cfg.Backend {
	case "periph", "":
		return OpenPeriph(cfg)
	case "rpio":
		return OpenRPIO(cfg)
	default:
		return nil, fmt.Errorf("board: unknown backend %q", cfg.Backend)
	}
}
