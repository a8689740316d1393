package bluetooth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

var macDir = regexp.MustCompile(`^([0-9A-F]{2}:){5}[0-9A-F]{2}$`)

// EraseBonds removes every pairing record BlueZ stores for the adapter with
// address adapter under root. Each paired device is a directory named by its
// address; the adapter's own settings and cache are kept. It returns the
// number of bonds removed.
//
// adapter must be a MAC address: root itself holds one directory per
// adapter, named the same way as the bonds inside them.
//
// bluetoothd keeps bonds it already loaded until it restarts.
func EraseBonds(root, adapter string, logger *slog.Logger) (int, error) {
	if !macDir.MatchString(adapter) {
		return 0, fmt.Errorf("bluetooth: erase bonds: invalid adapter address %q", adapter)
	}
	dir := filepath.Join(root, adapter)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("bluetooth: read bonds: %w", err)
	}
	var errs []error
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !macDir.MatchString(e.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
		logger.Debug("removed bond", "device", e.Name())
	}
	logger.Info("erased bluetooth bonds", "adapter", adapter, "count", removed)
	return removed, errors.Join(errs...)
}
