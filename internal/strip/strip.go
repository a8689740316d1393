// Package strip pushes rendered frames to an addressable LED chain. Every
// strip is an io.Writer taking one R, G, B triplet per pixel in strip order;
// each Write is one complete frame.
package strip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/s68k/firmware/internal/matrix"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// DefaultNRZPort is the SPI port the LED data line hangs off.
const DefaultNRZPort = "/dev/spidev0.1"

// NRZ drives WS2812-style LEDs by encoding frames as an NRZ bit stream on
// the MOSI line of an SPI port.
type NRZ struct {
	dev  *nrzled.Dev
	port spi.PortCloser
}

// OpenNRZ opens port and prepares a chain of pixels LEDs.
func OpenNRZ(port string, pixels int) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("strip: init host: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("strip: open %s: %w", port, err)
	}
	opts := nrzled.DefaultOpts
	opts.NumPixels = pixels
	opts.Channels = 3
	opts.Freq = 800 * physic.KiloHertz
	dev, err := nrzled.NewSPI(p, &opts)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("strip: nrzled: %w", err)
	}
	return &NRZ{dev: dev, port: p}, nil
}

func (s *NRZ) Write(rgb []byte) (int, error) {
	return s.dev.Write(rgb)
}

// Close turns every LED off and releases the port.
func (s *NRZ) Close() error {
	return errors.Join(s.dev.Halt(), s.port.Close())
}

// Terminal renders frames as a row of true-colour cells on a terminal. A
// frame identical to the previous one is not redrawn.
type Terminal struct {
	mu   sync.Mutex
	w    io.Writer
	last []byte
}

// NewTerminal returns a Terminal writing escape sequences to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Write(rgb []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(rgb)%3 != 0 {
		return 0, fmt.Errorf("strip: frame length %d is not a multiple of 3", len(rgb))
	}
	if bytes.Equal(rgb, t.last) {
		return len(rgb), nil
	}

	var buf bytes.Buffer
	buf.WriteString("\r")
	for i := 0; i < len(rgb); i += 3 {
		buf.WriteString("\x1b[48;2;")
		buf.WriteString(strconv.Itoa(int(rgb[i])))
		buf.WriteByte(';')
		buf.WriteString(strconv.Itoa(int(rgb[i+1])))
		buf.WriteByte(';')
		buf.WriteString(strconv.Itoa(int(rgb[i+2])))
		buf.WriteString("m ")
	}
	buf.WriteString("\x1b[0m")
	if _, err := t.w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	t.last = append(t.last[:0], rgb...)
	return len(rgb), nil
}

// Shared serialises frame writes with the matrix reader when the strip hangs
// off the same SPI bus as the register chain.
type Shared struct {
	W    io.Writer
	Lock *matrix.Lock
}

func (s Shared) Write(rgb []byte) (int, error) {
	if err := s.Lock.Acquire(context.Background()); err != nil {
		return 0, err
	}
	defer s.Lock.Unlock()
	return s.W.Write(rgb)
}
