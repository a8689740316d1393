package main

import (
	"os"
	"strings"

	"github.com/s68k/firmware/internal/config"
	"github.com/s68k/firmware/internal/configpaths"
	"github.com/s68k/firmware/internal/log"
	"github.com/s68k/firmware/internal/sim"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {

	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("s68k"),
		kong.Description("Firmware for the s68k split-less 68 key keyboard"),
		kong.UsageOnError(),
		// Load configuration from JSON/YAML/TOML in priority order; flags/env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	opts := log.Options{Level: cli.Log.Level, File: cli.Log.File}
	if ctx.Command() == "sim" {
		// The simulator puts the terminal in raw mode.
		opts.Stdout = sim.CRLF{W: os.Stdout}
		opts.Stderr = sim.CRLF{W: os.Stderr}
	}
	logger, closeFiles, err := log.SetupLogger(opts)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var rawLogger log.RawLogger
	if cli.Log.RawFile != "" {
		f, err := os.OpenFile(cli.Log.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "error", err)
			rawLogger = log.NewRaw(nil, "")
		} else {
			rawLogger = log.NewRaw(f, "")
			closeFiles = append(closeFiles, f)
		}
	} else if cli.Log.Level == "trace" {
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		rawLogger = log.NewRaw(w, "")
	} else {
		rawLogger = log.NewRaw(nil, "")
	}

	ctx.Bind(logger)
	ctx.BindTo(rawLogger, (*log.RawLogger)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("S68K_CONFIG"); v != "" {
		return v
	}
	return ""
}
