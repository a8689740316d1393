package cmd

import (
	"context"
	"log/slog"

	"github.com/s68k/firmware/internal/lighting"
	"github.com/s68k/firmware/internal/metrics"
	"github.com/s68k/firmware/internal/output"
)

// Lighting configures the LED renderer.
type Lighting struct {
	Mode  string `help:"Lighting mode at startup" enum:"on_press,random_static" default:"on_press" env:"S68K_LIGHTING_MODE"`
	Level uint8  `help:"Initial brightness" default:"64" env:"S68K_LIGHTING_LEVEL"`
	Max   uint8  `help:"Brightness ceiling, also bounds random key colours" default:"255"`
	Step  uint8  `help:"Brightness change per light:up or light:down" default:"16"`
}

func (l Lighting) options() (lighting.Options, error) {
	mode, err := lighting.ParseMode(l.Mode)
	if err != nil {
		return lighting.Options{}, err
	}
	return lighting.Options{Mode: mode, Level: l.Level, Max: l.Max, Step: l.Step}, nil
}

// Metrics configures the prometheus endpoint.
type Metrics struct {
	Addr string `help:"Serve prometheus metrics on this address, disabled when empty" env:"S68K_METRICS_ADDR"`
}

func outputHooks(m *metrics.Metrics) output.Hooks {
	names := make([]string, len(output.Modes))
	for i, mode := range output.Modes {
		names[i] = string(mode)
	}
	return output.Hooks{
		ModeChanged:     func(mode output.Mode) { m.SetMode(string(mode), names) },
		TransportFailed: m.TransportFailed,
	}
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *slog.Logger) {
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, addr, m.Handler(), logger); err != nil {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
}
