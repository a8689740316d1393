package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger records the bytes exchanged with a device.
type RawLogger interface {
	Log(in bool, data []byte)
}

type rawLogger struct {
	w   io.Writer
	dev string
	mu  *sync.Mutex
	now func() time.Time
}

// NewRaw returns a RawLogger writing one line per frame to w, tagged with dev.
// A nil writer yields a logger that discards everything.
func NewRaw(w io.Writer, dev string) RawLogger {
	return &rawLogger{w: w, dev: dev, mu: &sync.Mutex{}, now: time.Now}
}

// For returns a RawLogger tagging lines with dev on the same writer as r.
// Loggers not created by NewRaw are returned unchanged.
func For(r RawLogger, dev string) RawLogger {
	rl, ok := r.(*rawLogger)
	if !ok {
		return r
	}
	return &rawLogger{w: rl.w, dev: dev, mu: rl.mu, now: rl.now}
}

// Log writes a timestamped hex dump of data. in=true means device to host
// program, in=false means host program to device.
func (r *rawLogger) Log(in bool, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	dir := "tx"
	if in {
		dir = "rx"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s %s %d bytes: %s\n",
		r.now().Format("2006/01/02 15:04:05.000"),
		r.dev,
		dir,
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = io.WriteString(r.w, line)
	r.mu.Unlock()
}
