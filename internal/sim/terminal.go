package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal puts a tty into raw mode and feeds its keystrokes to a Bus.
type Terminal struct {
	in     *os.File
	state  *term.State
	bus    *Bus
	logger *slog.Logger
}

// Attach switches in to raw mode. Close restores it.
func Attach(in *os.File, bus *Bus, logger *slog.Logger) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("sim: stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &Terminal{in: in, state: state, bus: bus, logger: logger}, nil
}

// Run reads keystrokes until ctx is done, input ends or Ctrl-C is typed,
// then calls stop.
func (t *Terminal) Run(ctx context.Context, stop context.CancelFunc) {
	defer stop()
	Feed(ctx, t.in, t.bus, t.logger)
}

// Close restores the terminal state.
func (t *Terminal) Close() error {
	return term.Restore(int(t.in.Fd()), t.state)
}

// Feed decodes r into key holds on bus. It returns on Ctrl-C, read error or
// when ctx is done.
func Feed(ctx context.Context, r io.Reader, bus *Bus, logger *slog.Logger) {
	buf := make([]byte, 64)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		for _, ev := range Parse(buf[:n]) {
			if ev.Quit {
				return
			}
			if err := bus.Press(ev.Keys...); err != nil {
				logger.Debug("key not on board", "error", err)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("terminal read failed", "error", err)
			}
			return
		}
	}
}

// CRLF rewrites bare line feeds so log lines stay readable in raw mode.
type CRLF struct {
	W io.Writer
}

func (c CRLF) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\n", "\r\n")
	if _, err := io.WriteString(c.W, s); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Radio stands in for a bluetooth adapter. Reports are logged.
type Radio struct {
	logger *slog.Logger
}

// NewRadio returns a Radio logging to logger.
func NewRadio(logger *slog.Logger) *Radio {
	return &Radio{logger: logger}
}

func (r *Radio) StartAdvertising() error {
	r.logger.Info("advertising started")
	return nil
}

func (r *Radio) StopAdvertising() error {
	r.logger.Info("advertising stopped")
	return nil
}

func (r *Radio) SendReport(report []byte) error {
	r.logger.Debug("bluetooth report", "report", fmt.Sprintf("% x", report))
	return nil
}
