//go:build !linux

package cmd

import (
	"errors"
	"log/slog"
)

func install(*slog.Logger, []string) error {
	return errors.New("install is only supported on linux")
}

func uninstall(*slog.Logger) error {
	return errors.New("uninstall is only supported on linux")
}
