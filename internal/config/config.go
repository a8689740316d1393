// Package config holds the root command line definition.
package config

import "github.com/s68k/firmware/internal/cmd"

// CLI is the root kong model. Values come from flags, then environment
// variables, then the first config file found.
type CLI struct {
	ConfigFile string `name:"config" help:"Config file (json, yaml or toml)" type:"path" env:"S68K_CONFIG"`
	Log        Log    `embed:"" prefix:"log."`

	Run       cmd.Run           `cmd:"" help:"Scan the keyboard matrix and drive the host transports"`
	Sim       cmd.Sim           `cmd:"" help:"Run the firmware against the terminal instead of hardware"`
	Keymap    cmd.KeymapCommand `cmd:"" help:"Inspect and export keymaps"`
	Config    cmd.ConfigCommand `cmd:"" help:"Manage configuration files"`
	Gadget    cmd.GadgetCommand `cmd:"" help:"Manage the USB HID gadget"`
	Install   cmd.Install       `cmd:"" help:"Install the firmware as a systemd service"`
	Uninstall cmd.Uninstall     `cmd:"" help:"Remove the systemd service"`
}

// Log configures logging.
type Log struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"S68K_LOG_LEVEL"`
	File    string `help:"Also log to this file" type:"path" env:"S68K_LOG_FILE"`
	RawFile string `help:"Dump raw transport frames to this file" type:"path" env:"S68K_LOG_RAW_FILE"`
}
