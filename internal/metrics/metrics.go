// Package metrics provides Prometheus metrics for the departure board.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the board's Prometheus instruments on a private
// registry, so tests can build as many instances as they like without
// default-registry collisions.
type Metrics struct {
	Registry *prometheus.Registry

	// FetchesTotal counts fetch attempts by result (success|failure).
	FetchesTotal *prometheus.CounterVec
	// FetchDuration observes the latency of API fetches.
	FetchDuration prometheus.Histogram
	// ModeTransitionsTotal counts scheduler mode changes by target mode.
	ModeTransitionsTotal *prometheus.CounterVec
	// SchedulerMode is 0 in normal mode, 1 in error mode.
	SchedulerMode prometheus.Gauge
	// FramesTotal counts frames committed to the surface.
	FramesTotal prometheus.Counter
	// SnapshotAgeSeconds is the age of the displayed snapshot at the
	// last frame.
	SnapshotAgeSeconds prometheus.Gauge
}

// New creates and registers all board metrics with a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futarboard_fetches_total",
			Help: "Total number of arrivals API fetch attempts",
		},
		[]string{"result"},
	)

	fetchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "futarboard_fetch_duration_seconds",
		Help:    "Arrivals API fetch latency distribution",
		Buckets: prometheus.DefBuckets,
	})

	modeTransitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futarboard_mode_transitions_total",
			Help: "Scheduler mode transitions by target mode",
		},
		[]string{"to"},
	)

	schedulerMode := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "futarboard_scheduler_mode",
		Help: "Current scheduler mode (0 = normal, 1 = error)",
	})

	framesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "futarboard_frames_total",
		Help: "Total number of frames committed to the display surface",
	})

	snapshotAgeSeconds := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "futarboard_snapshot_age_seconds",
		Help: "Age of the displayed snapshot at the last rendered frame",
	})

	registry.MustRegister(
		fetchesTotal,
		fetchDuration,
		modeTransitionsTotal,
		schedulerMode,
		framesTotal,
		snapshotAgeSeconds,
	)

	return &Metrics{
		Registry:             registry,
		FetchesTotal:         fetchesTotal,
		FetchDuration:        fetchDuration,
		ModeTransitionsTotal: modeTransitionsTotal,
		SchedulerMode:        schedulerMode,
		FramesTotal:          framesTotal,
		SnapshotAgeSeconds:   snapshotAgeSeconds,
	}
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(duration.Seconds())
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled, then shuts the
// listener down. The board keeps running if the listener fails; metrics
// are best-effort.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener failed", slog.String("addr", addr), slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics listener shutdown failed", slog.Any("error", err))
		}
	}()
}
