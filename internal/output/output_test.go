package output

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/s68k/firmware/hid"
	"github.com/s68k/firmware/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	presses    [][]hid.Keycode
	releases   [][]hid.Keycode
	releaseAll int
	err        error
}

func (f *fakeTransport) Press(codes ...hid.Keycode) error {
	f.presses = append(f.presses, codes)
	return f.err
}

func (f *fakeTransport) Release(codes ...hid.Keycode) error {
	f.releases = append(f.releases, codes)
	return f.err
}

func (f *fakeTransport) ReleaseAll() error {
	f.releaseAll++
	return f.err
}

type fakeRadio struct {
	fakeTransport
	advertising bool
	starts      int
	stops       int
	startErr    error
	// stopFails is how many StopAdvertising calls fail before one succeeds;
	// negative fails every call.
	stopFails int
}

func (r *fakeRadio) StartAdvertising() error {
	r.starts++
	if r.startErr != nil {
		return r.startErr
	}
	r.advertising = true
	return nil
}

func (r *fakeRadio) StopAdvertising() error {
	r.stops++
	if r.stopFails != 0 {
		r.stopFails--
		return errors.New("org.bluez.Error.Failed")
	}
	r.advertising = false
	return nil
}

func (r *fakeRadio) Advertising() bool { return r.advertising }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("ch9329")
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestNewStartsInRequestedMode(t *testing.T) {
	bridge := &fakeTransport{}
	m, err := New(Config{SerialBridge: bridge}, ModeSerialBridge, discard())
	require.NoError(t, err)
	assert.Equal(t, ModeSerialBridge, m.Mode())
	assert.False(t, m.Advertising())

	_, err = New(Config{}, Mode("nope"), discard())
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestSetModeUnsupportedKeepsMode(t *testing.T) {
	m, err := New(Config{}, ModeDummy, discard())
	require.NoError(t, err)
	assert.ErrorIs(t, m.SetMode("parallel"), ErrUnsupportedMode)
	assert.Equal(t, ModeDummy, m.Mode())
}

func TestBluetoothAdvertisingFollowsMode(t *testing.T) {
	radio := &fakeRadio{}
	m, err := New(Config{Bluetooth: radio, SerialBridge: &fakeTransport{}}, ModeSerialBridge, discard())
	require.NoError(t, err)

	require.NoError(t, m.SetMode(ModeBluetooth))
	assert.True(t, radio.advertising)
	assert.Equal(t, 1, radio.starts)

	require.NoError(t, m.SetMode(ModeBluetooth))
	assert.Equal(t, 1, radio.starts, "re-entering bluetooth must not restart advertising")

	require.NoError(t, m.SetMode(ModeSerialBridge))
	assert.False(t, radio.advertising)
	assert.Equal(t, 1, radio.stops)

	require.NoError(t, m.SetMode(ModeDummy))
	assert.Equal(t, 1, radio.stops, "leaving a non-bluetooth mode leaves the radio alone")
}

func TestStopAdvertisingRetriesOnce(t *testing.T) {
	radio := &fakeRadio{stopFails: 1}
	var failed []string
	m, err := New(Config{
		Bluetooth: radio,
		Hooks:     Hooks{TransportFailed: func(name string) { failed = append(failed, name) }},
	}, ModeBluetooth, discard())
	require.NoError(t, err)

	require.NoError(t, m.SetMode(ModeDummy))
	assert.Equal(t, 2, radio.stops)
	assert.False(t, m.Advertising())
	assert.Empty(t, failed)
}

func TestStopAdvertisingFailureIsReported(t *testing.T) {
	radio := &fakeRadio{stopFails: -1}
	var failed []string
	m, err := New(Config{
		Bluetooth:    radio,
		SerialBridge: &fakeTransport{},
		Hooks:        Hooks{TransportFailed: func(name string) { failed = append(failed, name) }},
	}, ModeBluetooth, discard())
	require.NoError(t, err)

	require.NoError(t, m.SetMode(ModeSerialBridge))
	assert.Equal(t, ModeSerialBridge, m.Mode())
	assert.Equal(t, 2, radio.stops)
	assert.Equal(t, []string{"bluetooth"}, failed)
	assert.True(t, m.Advertising())
}

func TestModeChangeReleasesOutgoingTransport(t *testing.T) {
	usb := &fakeTransport{}
	bridge := &fakeTransport{}
	m, err := New(Config{USB: usb, SerialBridge: bridge}, ModeSerialBridge, discard())
	require.NoError(t, err)
	assert.Zero(t, bridge.releaseAll, "entering the start mode releases nothing")

	require.NoError(t, m.Press(hid.KeyLeftShift))
	require.NoError(t, m.SetMode(ModeUSB))
	assert.Equal(t, 1, bridge.releaseAll)
	assert.Zero(t, usb.releaseAll)

	require.NoError(t, m.SetMode(ModeUSB))
	assert.Zero(t, usb.releaseAll, "re-entering the active mode is not a change")

	require.NoError(t, m.Release(hid.KeyLeftShift))
	assert.Equal(t, [][]hid.Keycode{{hid.KeyLeftShift}}, usb.releases)

	require.NoError(t, m.SetMode(ModeDummy))
	assert.Equal(t, 1, usb.releaseAll)
	assert.Equal(t, 1, bridge.releaseAll)
}

func TestBluetoothStartFailureFallsBackToDummy(t *testing.T) {
	radio := &fakeRadio{startErr: errors.New("adapter busy")}
	var failed []string
	m, err := New(Config{
		Bluetooth: radio,
		Hooks:     Hooks{TransportFailed: func(name string) { failed = append(failed, name) }},
	}, ModeDummy, discard())
	require.NoError(t, err)

	require.NoError(t, m.SetMode(ModeBluetooth))
	assert.Equal(t, ModeDummy, m.Mode())
	assert.False(t, m.Advertising())
	assert.Equal(t, []string{"bluetooth"}, failed)
}

func TestUSBOpenFailureFallsBackToDummy(t *testing.T) {
	opens := 0
	m, err := New(Config{
		OpenUSB: func() (transport.Transport, error) {
			opens++
			return nil, errors.New("no gadget")
		},
	}, ModeDummy, discard())
	require.NoError(t, err)

	require.NoError(t, m.SetMode(ModeUSB))
	assert.Equal(t, ModeDummy, m.Mode())
	assert.Equal(t, 1, opens)
}

func TestUSBOpenedOnDemand(t *testing.T) {
	usb := &fakeTransport{}
	m, err := New(Config{
		OpenUSB: func() (transport.Transport, error) { return usb, nil },
	}, ModeUSB, discard())
	require.NoError(t, err)
	assert.Equal(t, ModeUSB, m.Mode())

	require.NoError(t, m.Press(hid.KeyA))
	assert.Equal(t, [][]hid.Keycode{{hid.KeyA}}, usb.presses)
}

func TestUSBWriteFailureDemotesToDummy(t *testing.T) {
	usb := &fakeTransport{err: errors.New("EPIPE")}
	var modes []Mode
	m, err := New(Config{
		USB:   usb,
		Hooks: Hooks{ModeChanged: func(mode Mode) { modes = append(modes, mode) }},
	}, ModeUSB, discard())
	require.NoError(t, err)

	require.NoError(t, m.Press(hid.KeyA))
	assert.Equal(t, ModeDummy, m.Mode())
	assert.Equal(t, []Mode{ModeUSB, ModeDummy}, modes)

	require.NoError(t, m.Release(hid.KeyA))
	assert.Len(t, usb.releases, 0, "dummy mode must not touch the failed transport")
}

func TestSerialBridgePassesCodesThrough(t *testing.T) {
	bridge := &fakeTransport{}
	m, err := New(Config{SerialBridge: bridge}, ModeSerialBridge, discard())
	require.NoError(t, err)

	codes := []hid.Keycode{hid.KeyA, hid.KeyB, hid.KeyC, hid.KeyD, hid.KeyE, hid.KeyF, hid.KeyG, hid.KeyH}
	require.NoError(t, m.Press(codes...))
	require.NoError(t, m.Release(codes...))
	assert.Equal(t, [][]hid.Keycode{codes}, bridge.presses)
	assert.Equal(t, [][]hid.Keycode{codes}, bridge.releases)
}

func TestSerialBridgeErrorsAreNotFatal(t *testing.T) {
	bridge := &fakeTransport{err: errors.New("write /dev/ttyS0: i/o error")}
	m, err := New(Config{SerialBridge: bridge}, ModeSerialBridge, discard())
	require.NoError(t, err)
	assert.NoError(t, m.Press(hid.KeyA))
	assert.Equal(t, ModeSerialBridge, m.Mode())

	m, err = New(Config{}, ModeSerialBridge, discard())
	require.NoError(t, err)
	assert.NoError(t, m.Press(hid.KeyA))
}

func TestBluetoothMissingTransportIsFatal(t *testing.T) {
	m, err := New(Config{}, ModeBluetooth, discard())
	require.NoError(t, err)
	assert.Equal(t, ModeBluetooth, m.Mode())
	assert.ErrorIs(t, m.Press(hid.KeyA), ErrMissingTransport)
	assert.ErrorIs(t, m.Release(hid.KeyA), ErrMissingTransport)
}

func TestBluetoothForwardsAllCodes(t *testing.T) {
	radio := &fakeRadio{}
	m, err := New(Config{Bluetooth: radio}, ModeBluetooth, discard())
	require.NoError(t, err)

	codes := []hid.Keycode{hid.KeyA, hid.KeyB, hid.KeyC, hid.KeyD, hid.KeyE, hid.KeyF, hid.KeyG}
	require.NoError(t, m.Press(codes...))
	assert.Equal(t, codes, radio.presses[0])
}

func TestDummyDropsEverything(t *testing.T) {
	bridge := &fakeTransport{}
	m, err := New(Config{SerialBridge: bridge}, ModeDummy, discard())
	require.NoError(t, err)
	require.NoError(t, m.Press(hid.KeyA))
	require.NoError(t, m.Release(hid.KeyA))
	assert.Empty(t, bridge.presses)
	assert.Empty(t, bridge.releases)
}

func TestResetReleasesEveryLiveTransport(t *testing.T) {
	usb := &fakeTransport{}
	bridge := &fakeTransport{err: errors.New("bridge gone")}
	m, err := New(Config{USB: usb, SerialBridge: bridge}, ModeDummy, discard())
	require.NoError(t, err)

	err = m.Reset()
	assert.ErrorContains(t, err, "bridge gone")
	assert.Equal(t, 1, usb.releaseAll)
	assert.Equal(t, 1, bridge.releaseAll)
}
