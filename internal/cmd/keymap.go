package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/s68k/firmware/internal/configpaths"
	"github.com/s68k/firmware/internal/firmware"
	"github.com/s68k/firmware/internal/keymap"
	"github.com/s68k/firmware/internal/output"
	"github.com/s68k/firmware/internal/sim"
)

// KeymapCommand groups keymap subcommands.
type KeymapCommand struct {
	Export KeymapExport `cmd:"" help:"Write the effective keymap to a file"`
	Show   KeymapShow   `cmd:"" help:"Print the binding of every key in every layer"`
}

// KeymapExport writes the loaded keymap, or the built-in one, in any
// supported format. The output is a valid --keymap file.
type KeymapExport struct {
	Keymap string `help:"Keymap file to re-encode, built-in layout when empty" type:"path" env:"S68K_KEYMAP"`
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `help:"Destination file path (defaults to stdout)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (k *KeymapExport) Run() error {
	b, err := keymap.LoadBoard(k.Keymap)
	if err != nil {
		return err
	}
	data, err := b.Marshal(k.Format)
	if err != nil {
		return err
	}
	if k.Output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if !k.Force {
		if _, err := os.Stat(k.Output); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(k.Output); err != nil {
		return err
	}
	return os.WriteFile(k.Output, data, 0o644)
}

// KeymapShow builds the layer stack exactly as run would and prints it.
type KeymapShow struct {
	Keymap string `help:"Keymap file, built-in layout when empty" type:"path" env:"S68K_KEYMAP"`
}

func (k *KeymapShow) Run(logger *slog.Logger) error {
	b, err := keymap.LoadBoard(k.Keymap)
	if err != nil {
		return err
	}
	return showKeymap(os.Stdout, b, logger)
}

func showKeymap(w io.Writer, b *keymap.Board, logger *slog.Logger) error {
	out, err := output.New(output.Config{}, output.ModeDummy, logger)
	if err != nil {
		return err
	}
	kb, err := firmware.New(firmware.Config{
		Board:  b,
		Bus:    sim.NewBus(b, 0),
		Output: out,
	}, logger)
	if err != nil {
		return err
	}

	layers := kb.Stack().Layers()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "ID\tKEY")
	for _, l := range layers {
		fmt.Fprintf(tw, "\t%s", l.Name)
	}
	fmt.Fprintln(tw)
	for _, pk := range kb.Registry().Keys() {
		fmt.Fprintf(tw, "%d\t%s", pk.ID, pk.Name)
		for _, l := range layers {
			vk, _ := l.Lookup(pk.ID)
			fmt.Fprintf(tw, "\t%s", binding(vk))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func binding(vk *keymap.VirtualKey) string {
	if vk == nil {
		return "-"
	}
	switch vk.Kind {
	case keymap.KindForward:
		return vk.Code.String()
	case keymap.KindAction:
		return "[" + vk.Name + "]"
	default:
		return "(" + vk.Kind.String() + ")"
	}
}
