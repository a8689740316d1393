package bluetooth

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/s68k/firmware/hid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRadio struct {
	reports  [][]byte
	starts   int
	stops    int
	startErr error
	sendErr  error
}

func (r *fakeRadio) StartAdvertising() error {
	r.starts++
	return r.startErr
}

func (r *fakeRadio) StopAdvertising() error {
	r.stops++
	return nil
}

func (r *fakeRadio) SendReport(report []byte) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	r.reports = append(r.reports, append([]byte(nil), report...))
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestKeyboardSendsReports(t *testing.T) {
	radio := &fakeRadio{}
	kb := New(radio, nil, discard())

	require.NoError(t, kb.Press(hid.KeyLeftCtrl, hid.KeyC))
	require.NoError(t, kb.Release(hid.KeyC))
	require.NoError(t, kb.ReleaseAll())

	assert.Equal(t, [][]byte{
		{0x01, 0, 0x06, 0, 0, 0, 0, 0},
		{0x01, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}, radio.reports)
}

func TestKeyboardSendError(t *testing.T) {
	kb := New(&fakeRadio{sendErr: errors.New("not connected")}, nil, discard())
	assert.ErrorContains(t, kb.Press(hid.KeyA), "not connected")
}

func TestAdvertisingIsIdempotent(t *testing.T) {
	radio := &fakeRadio{}
	kb := New(radio, nil, discard())
	assert.False(t, kb.Advertising())

	require.NoError(t, kb.StartAdvertising())
	require.NoError(t, kb.StartAdvertising())
	assert.True(t, kb.Advertising())
	assert.Equal(t, 1, radio.starts)

	require.NoError(t, kb.StopAdvertising())
	require.NoError(t, kb.StopAdvertising())
	assert.False(t, kb.Advertising())
	assert.Equal(t, 1, radio.stops)
}

func TestAdvertisingStartFailure(t *testing.T) {
	kb := New(&fakeRadio{startErr: errors.New("busy")}, nil, discard())
	assert.Error(t, kb.StartAdvertising())
	assert.False(t, kb.Advertising())
}

func TestEraseBonds(t *testing.T) {
	root := t.TempDir()
	adapter := "DC:A6:32:00:11:22"
	dir := filepath.Join(root, adapter)
	for _, d := range []string{"AA:BB:CC:DD:EE:FF", "11:22:33:44:55:66", "cache"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, d, "info"), []byte("[LinkKey]"), 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings"), []byte("x"), 0o600))

	n, err := EraseBonds(root, adapter, discard())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"cache", "settings"}, names)

	_, err = EraseBonds(root, "00:00:00:00:00:00", discard())
	assert.Error(t, err)
}

func TestEraseBondsRequiresAdapterAddress(t *testing.T) {
	root := t.TempDir()
	adapter := filepath.Join(root, "AA:BB:CC:DD:EE:FF")
	require.NoError(t, os.MkdirAll(filepath.Join(adapter, "11:22:33:44:55:66"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(adapter, "settings"), []byte("[General]"), 0o600))

	for _, addr := range []string{"", ".", "../AA:BB:CC:DD:EE:FF"} {
		n, err := EraseBonds(root, addr, discard())
		assert.Error(t, err, "%q", addr)
		assert.Zero(t, n)
	}

	assert.FileExists(t, filepath.Join(adapter, "settings"))
	assert.DirExists(t, filepath.Join(adapter, "11:22:33:44:55:66"))
}
