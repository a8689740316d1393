package usbhid

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/s68k/firmware/hid"
)

const (
	// DefaultGadgetRoot is where configfs exposes USB gadgets.
	DefaultGadgetRoot = "/sys/kernel/config/usb_gadget"
	// DefaultUDCDir lists the device controllers a gadget can bind to.
	DefaultUDCDir = "/sys/class/udc"
)

const (
	function   = "functions/hid.usb0"
	config     = "configs/c.1"
	langID     = "0x409"
	reportSize = 8
)

// Gadget describes the keyboard function exposed through the Linux USB
// gadget configfs. Binding it to a device controller creates the hidg
// character device Keyboard writes to.
type Gadget struct {
	Root         string `help:"configfs usb_gadget directory" default:"/sys/kernel/config/usb_gadget"`
	Name         string `help:"Gadget directory name" default:"s68k"`
	UDC          string `help:"Device controller to bind, first one found when empty"`
	UDCDir       string `help:"Directory listing device controllers" default:"/sys/class/udc"`
	VendorID     uint16 `help:"USB vendor id" default:"0x2E8A"`
	ProductID    uint16 `help:"USB product id" default:"0x0010"`
	BcdDevice    uint16 `help:"Device release number" default:"0x0100"`
	Manufacturer string `help:"Manufacturer string" default:"s68k"`
	Product      string `help:"Product string" default:"s68k keyboard"`
	Serial       string `help:"Serial number string" default:"1337"`
	MaxPower     int    `help:"Bus power draw in mA" default:"250"`
}

// DefaultGadget returns the gadget run --usb.setup creates.
func DefaultGadget() Gadget {
	return Gadget{
		Root:         DefaultGadgetRoot,
		Name:         "s68k",
		UDCDir:       DefaultUDCDir,
		VendorID:     0x2E8A,
		ProductID:    0x0010,
		BcdDevice:    0x0100,
		Manufacturer: "s68k",
		Product:      "s68k keyboard",
		Serial:       "1337",
		MaxPower:     250,
	}
}

func (g Gadget) dir() string { return filepath.Join(g.Root, g.Name) }

// Bound reports whether the gadget is attached to a device controller.
func (g Gadget) Bound() bool {
	b, err := os.ReadFile(filepath.Join(g.dir(), "UDC"))
	return err == nil && len(b) > 0 && b[0] != '\n'
}

// Setup creates the gadget, the boot keyboard function and one
// configuration, then binds it to a device controller. A gadget that is
// already bound is left alone.
func (g Gadget) Setup(logger *slog.Logger) error {
	if g.Bound() {
		logger.Debug("usb gadget already bound", "gadget", g.dir())
		return nil
	}
	dir := g.dir()
	attrs := []struct {
		path  string
		value string
	}{
		{"idVendor", hex16(g.VendorID)},
		{"idProduct", hex16(g.ProductID)},
		{"bcdDevice", hex16(g.BcdDevice)},
		{"bcdUSB", hex16(0x0200)},
		{"strings/" + langID + "/manufacturer", g.Manufacturer},
		{"strings/" + langID + "/product", g.Product},
		{"strings/" + langID + "/serialnumber", g.Serial},
		{config + "/strings/" + langID + "/configuration", "keyboard"},
		{config + "/MaxPower", strconv.Itoa(g.MaxPower)},
		{function + "/protocol", "1"},
		{function + "/subclass", "1"},
		{function + "/report_length", strconv.Itoa(reportSize)},
	}
	for _, a := range attrs {
		if err := writeAttr(filepath.Join(dir, a.path), []byte(a.value)); err != nil {
			return err
		}
	}
	if err := writeAttr(filepath.Join(dir, function, "report_desc"), hid.ReportDescriptor); err != nil {
		return err
	}

	link := filepath.Join(dir, config, filepath.Base(function))
	if _, err := os.Lstat(link); errors.Is(err, os.ErrNotExist) {
		if err := os.Symlink(filepath.Join(dir, function), link); err != nil {
			return fmt.Errorf("usbhid: link function: %w", err)
		}
	}

	udc := g.UDC
	if udc == "" {
		entries, err := os.ReadDir(g.UDCDir)
		if err != nil {
			return fmt.Errorf("usbhid: list device controllers: %w", err)
		}
		if len(entries) == 0 {
			return errors.New("usbhid: no usb device controller, is dwc2 loaded?")
		}
		udc = entries[0].Name()
	}
	if err := os.WriteFile(filepath.Join(dir, "UDC"), []byte(udc), 0o644); err != nil {
		return fmt.Errorf("usbhid: bind %s: %w", udc, err)
	}
	logger.Info("usb gadget bound", "gadget", dir, "udc", udc)
	return nil
}

// Teardown unbinds the gadget and removes its configfs tree. configfs
// directories are removed one by one, innermost first.
func (g Gadget) Teardown(logger *slog.Logger) error {
	dir := g.dir()
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	var errs []error
	if g.Bound() {
		if err := os.WriteFile(filepath.Join(dir, "UDC"), []byte("\n"), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("usbhid: unbind: %w", err))
		}
	}
	for _, p := range []string{
		filepath.Join(config, filepath.Base(function)),
		filepath.Join(config, "strings", langID),
		config,
		function,
		filepath.Join("strings", langID),
		"",
	} {
		if err := os.Remove(filepath.Join(dir, p)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("usb gadget removed", "gadget", dir)
	return nil
}

func writeAttr(path string, value []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("usbhid: %w", err)
	}
	if err := os.WriteFile(path, value, 0o644); err != nil {
		return fmt.Errorf("usbhid: %w", err)
	}
	return nil
}

func hex16(v uint16) string { return fmt.Sprintf("0x%04x", v) }
