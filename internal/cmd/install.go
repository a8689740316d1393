package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Install registers the firmware as a boot service.
type Install struct {
	Args []string `arg:"" optional:"" help:"Extra flags for the run command, given after --"`
}

func (i *Install) Run(logger *slog.Logger) error {
	return install(logger, i.Args)
}

// Uninstall removes the boot service.
type Uninstall struct{}

func (u *Uninstall) Run(logger *slog.Logger) error {
	return uninstall(logger)
}

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
