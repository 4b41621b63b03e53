// Command buttonboard runs the button-gated variant: a supervisor loop
// watches a GPIO push-button on a fast tick and keeps a display worker
// running only while the enable window is open. A double press opens
// (or extends) the window; expiry cancels the worker immediately, even
// if it is mid-fetch.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"futarboard.hu/internal/app"
	"futarboard.hu/internal/appconf"
	"futarboard.hu/internal/button"
	"futarboard.hu/internal/clock"
	"futarboard.hu/internal/display"
	"futarboard.hu/internal/futar"
	"futarboard.hu/internal/gate"
	"futarboard.hu/internal/logging"
	"futarboard.hu/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := appconf.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("home BKK Futár button board initializing",
		slog.String("chip", cfg.ButtonChip), slog.Int("line", cfg.ButtonLine))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	boardMetrics := metrics.New()
	if cfg.MetricsAddr != "" {
		boardMetrics.Serve(ctx, cfg.MetricsAddr, logger)
	}

	clk := clock.RealClock{}
	input, err := button.Open(cfg.ButtonChip, cfg.ButtonLine, clk, logger)
	if err != nil {
		logging.LogError(logger, "cannot open button input", err)
		os.Exit(1)
	}
	defer logging.SafeClose(input, logger, "button input")

	// Each activation gets a fresh surface, client and loop; the matrix
	// is released the moment the window closes.
	worker := func(ctx context.Context) {
		if err := runWorker(ctx, cfg, logger, boardMetrics, clk); err != nil {
			logging.LogError(logger, "display worker failed", err)
		}
	}

	supervisor := gate.NewSupervisor(input.Events(), worker,
		cfg.EnableFor, cfg.ButtonTickInterval, cfg.ButtonMaxInterval, clk, logger)
	supervisor.Run(ctx)
}

func runWorker(ctx context.Context, cfg appconf.Config, logger *slog.Logger, boardMetrics *metrics.Metrics, clk clock.Clock) error {
	geo := display.Geometry{
		Rows:              cfg.MatrixRows,
		Cols:              cfg.MatrixCols,
		FontWidth:         cfg.FontWidth,
		FontHeight:        cfg.FontHeight,
		XIndent:           cfg.XIndent,
		YIndent:           cfg.YIndent,
		LatencyBarSeconds: cfg.LatencyBarSeconds,
		LatencyBarYIndent: cfg.LatencyBarYIndent,
	}

	surface := display.NewTermSurface(os.Stdout, geo)
	defer logging.SafeClose(surface, logger, "display surface")

	stopIDs := make([]string, len(cfg.Stops))
	for i, stop := range cfg.Stops {
		stopIDs[i] = stop.ID
	}

	client := futar.NewClient(cfg.APIBaseURL, cfg.APIKey, stopIDs, cfg.FetchTimeout, logger)
	boardApp := app.New(cfg, logger, clk, client, display.NewRenderer(surface, geo), boardMetrics)

	return boardApp.RunLoop(ctx)
}
