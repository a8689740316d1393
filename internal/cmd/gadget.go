package cmd

import (
	"log/slog"

	"github.com/s68k/firmware/internal/transport/usbhid"
)

// GadgetCommand manages the USB HID gadget the usb_hid transport writes to.
type GadgetCommand struct {
	Setup    GadgetSetup    `cmd:"" help:"Create the configfs keyboard gadget and bind it"`
	Teardown GadgetTeardown `cmd:"" help:"Unbind and remove the configfs keyboard gadget"`
}

type GadgetSetup struct {
	Gadget usbhid.Gadget `embed:""`
}

func (g *GadgetSetup) Run(logger *slog.Logger) error {
	return g.Gadget.Setup(logger)
}

type GadgetTeardown struct {
	Gadget usbhid.Gadget `embed:""`
}

func (g *GadgetTeardown) Run(logger *slog.Logger) error {
	return g.Gadget.Teardown(logger)
}
