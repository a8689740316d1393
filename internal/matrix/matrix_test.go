package matrix

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	data    []byte
	loads   int
	readErr error
	short   bool
}

func (b *fakeBus) Load() error {
	b.loads++
	return nil
}

func (b *fakeBus) Read(p []byte) (int, error) {
	if b.readErr != nil {
		return 0, b.readErr
	}
	n := copy(p, b.data)
	if b.short {
		n--
	}
	return n, nil
}

func TestDecodeMSBFirst(t *testing.T) {
	bits := Decode([]byte{0b1000_0001, 0b0100_0000})
	require.Len(t, bits, 16)
	assert.Equal(t, Bits{1, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 0}, bits)
}

func TestPressedIDs(t *testing.T) {
	// Active low: bits 3 and 9 pulled to zero.
	bits := Decode([]byte{0b1110_1111, 0b1011_1111})
	domain := []int{1, 3, 9, 12, 99, -1}

	assert.Equal(t, []int{3, 9}, PressedIDs(bits, domain))
	assert.Empty(t, PressedIDs(bits, []int{0, 1, 2}))
}

func TestPressedIDsIgnoresUnusedCells(t *testing.T) {
	bits := Decode([]byte{0x00})
	assert.Equal(t, []int{2, 5}, PressedIDs(bits, []int{2, 5}))
}

func TestSample(t *testing.T) {
	bus := &fakeBus{data: []byte{0xFF, 0x7F}}
	r := NewReader(bus, nil, 2)

	bits, err := r.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, r.Width())
	assert.Equal(t, 1, bus.loads)
	assert.Equal(t, []int{8}, PressedIDs(bits, []int{0, 7, 8, 15}))
}

func TestSampleReleasesLockOnError(t *testing.T) {
	lock := &Lock{}
	bus := &fakeBus{readErr: errors.New("spi fault")}
	r := NewReader(bus, lock, 1)

	_, err := r.Sample(context.Background())
	require.Error(t, err)
	assert.True(t, lock.TryLock(), "lock must be released after a failed read")
	lock.Unlock()

	bus.readErr = nil
	bus.data = []byte{0xFF}
	bus.short = true
	_, err = r.Sample(context.Background())
	assert.ErrorIs(t, err, ErrShortRead)
	assert.True(t, lock.TryLock())
	lock.Unlock()
}

func TestSampleSpinsUntilBusFree(t *testing.T) {
	lock := &Lock{}
	require.True(t, lock.TryLock())

	bus := &fakeBus{data: []byte{0xFF}}
	r := NewReader(bus, lock, 1)

	done := make(chan error, 1)
	go func() {
		_, err := r.Sample(context.Background())
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("sample returned while the bus was held")
	case <-time.After(20 * time.Millisecond):
	}

	lock.Unlock()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sample did not acquire the released bus")
	}
}

func TestSampleSpinHonoursCancel(t *testing.T) {
	lock := &Lock{}
	require.True(t, lock.TryLock())
	defer lock.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReader(&fakeBus{data: []byte{0xFF}}, lock, 1)
	_, err := r.Sample(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
