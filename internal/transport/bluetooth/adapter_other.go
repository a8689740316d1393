//go:build !linux

package bluetooth

import "errors"

// Adapter is unavailable off linux.
type Adapter struct{}

// OpenAdapter always fails off linux.
func OpenAdapter(string) (*Adapter, error) {
	return nil, errors.New("bluetooth: adapter only supported on linux")
}

func (*Adapter) Address() string                { return "" }
func (*Adapter) StartAdvertising() error        { return errors.ErrUnsupported }
func (*Adapter) StopAdvertising() error         { return errors.ErrUnsupported }
func (*Adapter) SendReport(report []byte) error { return errors.ErrUnsupported }
