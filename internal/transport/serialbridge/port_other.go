//go:build !linux

package serialbridge

import (
	"errors"
	"os"
)

func openPort(string, int) (*os.File, error) {
	return nil, errors.New("serial ports are only supported on linux")
}
