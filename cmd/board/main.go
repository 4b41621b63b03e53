// Command board runs the departure display directly: it polls the BKK
// Futár arrivals API on the tick cadence and renders departures until
// the enable window lapses or the process is signalled.
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
	"futarboard.hu/internal/clock"
	"futarboard.hu/internal/display"
	"futarboard.hu/internal/futar"
	"futarboard.hu/internal/logging"
	"futarboard.hu/internal/metrics"
)

func main() {
	// .env is optional; real deployments configure the environment.
	_ = godotenv.Load()

	cfg, err := appconf.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("home BKK Futár board initializing")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	boardMetrics := metrics.New()
	if cfg.MetricsAddr != "" {
		boardMetrics.Serve(ctx, cfg.MetricsAddr, logger)
	}

	// A positive enable window bounds the whole run; zero runs forever.
	runCtx := ctx
	if cfg.EnableFor > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.EnableFor)
		defer cancel()
	}

	if err := runBoard(runCtx, cfg, logger, boardMetrics); err != nil {
		logging.LogError(logger, "display loop failed", err)
		os.Exit(1)
	}
}

// runBoard builds the application and runs one display loop to
// completion, releasing the surface on all exit paths.
func runBoard(ctx context.Context, cfg appconf.Config, logger *slog.Logger, boardMetrics *metrics.Metrics) error {
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
	boardApp := app.New(cfg, logger, clock.RealClock{}, client, display.NewRenderer(surface, geo), boardMetrics)

	return boardApp.RunLoop(ctx)
}
