//go:build linux

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemdUnitContent(t *testing.T) {
	unit := systemdUnitContent("/usr/local/bin/s68k", []string{"--mode=usb_hid", "--keymap=/etc/s68k/my map.yaml"})
	assert.Contains(t, unit, `ExecStart="/usr/local/bin/s68k" run "--mode=usb_hid" "--keymap=/etc/s68k/my map.yaml"`+"\n")
	assert.Contains(t, unit, "WorkingDirectory=/usr/local/bin\n")
	assert.Contains(t, unit, "After=bluetooth.target\n")
	assert.Contains(t, unit, "WantedBy=multi-user.target\n")
}
