// Package app wires the board together and runs the display loop: one
// scheduler evaluation, at most one fetch, and one frame per tick.
package app

import (
	"context"
	"log/slog"
	"time"

	"futarboard.hu/internal/appconf"
	"futarboard.hu/internal/clock"
	"futarboard.hu/internal/display"
	"futarboard.hu/internal/futar"
	"futarboard.hu/internal/layout"
	"futarboard.hu/internal/metrics"
	"futarboard.hu/internal/poll"
)

// DataSource is the arrivals API as seen by the loop. Satisfied by
// *futar.Client; tests substitute a stub.
type DataSource interface {
	Fetch(ctx context.Context) (*futar.Snapshot, error)
}

// Application holds the dependencies of one display loop.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Clock    clock.Clock
	Source   DataSource
	Renderer *display.Renderer
	Metrics  *metrics.Metrics

	scheduler *poll.Scheduler
	snapshot  *futar.Snapshot
}

// New builds an Application around the given collaborators.
func New(cfg appconf.Config, logger *slog.Logger, clk clock.Clock, source DataSource, renderer *display.Renderer, m *metrics.Metrics) *Application {
	return &Application{
		Config:    cfg,
		Logger:    logger.With(slog.String("component", "display_loop")),
		Clock:     clk,
		Source:    source,
		Renderer:  renderer,
		Metrics:   m,
		scheduler: poll.NewScheduler(cfg.Cadence),
	}
}

// RunLoop ticks until ctx is cancelled or the surface fails. The
// surface is blanked on every exit path so the matrix never keeps
// glowing with stale departures.
func (a *Application) RunLoop(ctx context.Context) error {
	a.Logger.Info("starting display loop",
		slog.Duration("tick_interval", a.Config.TickInterval),
		slog.Int("stops", len(a.Config.Stops)))

	ticker := time.NewTicker(a.Config.TickInterval)
	defer ticker.Stop()
	defer func() {
		if err := a.Renderer.Blank(); err != nil {
			a.Logger.Warn("failed to blank surface on shutdown", slog.Any("error", err))
		}
	}()

	for {
		if err := a.TickOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			a.Logger.Info("display loop finished")
			return nil
		case <-ticker.C:
		}
	}
}

// TickOnce is one evaluation of the loop: consult the scheduler, fetch
// if due, render the held snapshot, advance the tick counter. Only a
// surface failure is returned; fetch failures are absorbed into the
// scheduler's error mode.
func (a *Application) TickOnce(ctx context.Context) error {
	if a.scheduler.ShouldFetch() {
		a.fetch(ctx)
	}

	if a.snapshot != nil {
		now := a.Clock.Now()
		lines, chars := a.Renderer.Geometry().Grid()
		rows := layout.Format(a.snapshot, layout.Grid{Lines: lines, Chars: chars}, a.Config.Stops, a.Config.MinDepartureSeconds)

		if err := a.Renderer.Draw(rows, a.snapshot.ServerTime, now, display.ColorAt(now)); err != nil {
			// Surface failures are not retryable; bail out so the
			// process releases the matrix.
			return err
		}
		a.Metrics.FramesTotal.Inc()
		a.Metrics.SnapshotAgeSeconds.Set(now.Sub(a.snapshot.ServerTime).Seconds())
	}

	a.scheduler.Advance()
	return nil
}

// fetch performs one bounded fetch and feeds the outcome to the
// scheduler.
func (a *Application) fetch(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.Config.FetchTimeout)
	defer cancel()

	start := a.Clock.Now()
	snapshot, err := a.Source.Fetch(fetchCtx)
	a.Metrics.ObserveFetch(a.Clock.Now().Sub(start), err)

	before := a.scheduler.Mode()
	if err != nil {
		a.Logger.Warn("fetch failed", slog.Any("error", err), slog.String("mode", before.String()))
		a.scheduler.RecordFailure()
	} else {
		a.snapshot = snapshot
		a.scheduler.RecordSuccess()
	}

	after := a.scheduler.Mode()
	if after != before {
		a.Logger.Info("scheduler mode changed",
			slog.String("from", before.String()), slog.String("to", after.String()))
		a.Metrics.ModeTransitionsTotal.WithLabelValues(after.String()).Inc()
	}
	a.Metrics.SchedulerMode.Set(float64(after))
}

// Snapshot returns the currently held snapshot, nil before the first
// successful fetch.
func (a *Application) Snapshot() *futar.Snapshot {
	return a.snapshot
}
