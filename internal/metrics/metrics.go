// Package metrics exposes scan loop and transport counters to prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/s68k/firmware/internal/keymap"
)

const namespace = "s68k"

// Metrics holds the firmware collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Cycles            prometheus.Counter
	CycleDuration     prometheus.Histogram
	MatrixErrors      prometheus.Counter
	Dispatches        *prometheus.CounterVec
	OutputMode        *prometheus.GaugeVec
	TransportFailures *prometheus.CounterVec
	LightLevel        prometheus.Gauge
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_cycles_total",
			Help:      "Completed matrix scan cycles.",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_cycle_duration_seconds",
			Help:      "Time from matrix sample to frame flush, excluding the inter-cycle sleep.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 12),
		}),
		MatrixErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matrix_errors_total",
			Help:      "Failed matrix samples.",
		}),
		Dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_dispatches_total",
			Help:      "Virtual key dispatches by kind.",
		}, []string{"kind"}),
		OutputMode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_mode",
			Help:      "1 for the active output mode, 0 otherwise.",
		}, []string{"mode"}),
		TransportFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_failures_total",
			Help:      "Transport errors absorbed by the output multiplexer.",
		}, []string{"transport"}),
		LightLevel: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "light_level",
			Help:      "Current LED brightness level.",
		}),
	}
}

// ObserveCycle records one completed scan cycle.
func (m *Metrics) ObserveCycle(d time.Duration, st keymap.Stats) {
	m.Cycles.Inc()
	m.CycleDuration.Observe(d.Seconds())
	if st.Presses > 0 {
		m.Dispatches.WithLabelValues("press").Add(float64(st.Presses))
	}
	if st.Releases > 0 {
		m.Dispatches.WithLabelValues("release").Add(float64(st.Releases))
	}
	if st.Actions > 0 {
		m.Dispatches.WithLabelValues("action").Add(float64(st.Actions))
	}
}

// SetMode marks mode as the only active output mode out of modes.
func (m *Metrics) SetMode(mode string, modes []string) {
	for _, other := range modes {
		v := 0.0
		if other == mode {
			v = 1
		}
		m.OutputMode.WithLabelValues(other).Set(v)
	}
}

// TransportFailed counts one absorbed transport error.
func (m *Metrics) TransportFailed(name string) {
	m.TransportFailures.WithLabelValues(name).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve listens on addr and serves /metrics until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("serving metrics", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
