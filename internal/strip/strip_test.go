package strip

import (
	"bytes"
	"testing"

	"github.com/s68k/firmware/internal/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalRendersCells(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)

	n, err := term.Write([]byte{255, 0, 16, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "\r\x1b[48;2;255;0;16m \x1b[48;2;0;0;0m \x1b[0m", out.String())
}

func TestTerminalSkipsUnchangedFrames(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)
	frame := []byte{1, 2, 3}

	_, err := term.Write(frame)
	require.NoError(t, err)
	first := out.Len()

	frame[0] = 1
	_, err = term.Write(frame)
	require.NoError(t, err)
	assert.Equal(t, first, out.Len())

	_, err = term.Write([]byte{9, 9, 9})
	require.NoError(t, err)
	assert.Greater(t, out.Len(), first)
}

func TestTerminalRejectsPartialPixels(t *testing.T) {
	_, err := NewTerminal(&bytes.Buffer{}).Write([]byte{1, 2})
	assert.Error(t, err)
}

func TestSharedReleasesLock(t *testing.T) {
	var lock matrix.Lock
	var out bytes.Buffer
	s := Shared{W: &out, Lock: &lock}

	n, err := s.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{1, 2, 3}, out.Bytes())
	require.True(t, lock.TryLock(), "lock must be free after a write")
	lock.Unlock()
}
