// Package appconf loads the board configuration from environment
// variables. Configuration errors are fatal by design: a board with a
// half-parsed stop list must refuse to start, not display the wrong
// stops.
package appconf

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"futarboard.hu/internal/layout"
	"futarboard.hu/internal/logging"
	"futarboard.hu/internal/poll"
)

// Config is the full configuration surface of both binaries.
type Config struct {
	LogLevel slog.Level

	// Arrivals API.
	APIBaseURL   string
	APIKey       string
	Stops        []layout.Stop
	FetchTimeout time.Duration

	// Tick cadence.
	TickInterval time.Duration
	Cadence      poll.Cadence

	// Formatting.
	MinDepartureSeconds int

	// Matrix geometry and font metrics, in pixels.
	MatrixRows        int
	MatrixCols        int
	FontWidth         int
	FontHeight        int
	XIndent           int
	YIndent           int
	LatencyBarSeconds int
	LatencyBarYIndent int

	// Enable window. Zero means the board never turns itself off.
	EnableFor time.Duration

	// Button (buttonboard only).
	ButtonChip         string
	ButtonLine         int
	ButtonMaxInterval  time.Duration
	ButtonTickInterval time.Duration

	// Optional Prometheus listener, e.g. ":9105". Empty disables it.
	MetricsAddr string
}

// Environment variable names. The BKK_FUTAR prefix is shared with the
// .env file consumed by godotenv in the binaries.
const (
	envLogLevel            = "BKK_FUTAR_LOGGING_LEVEL"
	envAPIBaseURL          = "BKK_FUTAR_API_BASE_URL"
	envAPIKey              = "BKK_FUTAR_API_KEY"
	envStops               = "BKK_FUTAR_STOPS"
	envStopsSeparator      = "BKK_FUTAR_STOPS_SEPARATOR"
	envStopsPairSeparator  = "BKK_FUTAR_STOPS_PAIR_SEPARATOR"
	envFetchTimeoutSeconds = "BKK_FUTAR_FETCH_TIMEOUT_SECONDS"
	envTickSeconds         = "BKK_FUTAR_TICK_SECONDS"
	envRequestTicks        = "BKK_FUTAR_REQUEST_TICKS"
	envErrorTicksSequence  = "BKK_FUTAR_ERROR_TICKS_SEQUENCE"
	envErrorTicks          = "BKK_FUTAR_ERROR_TICKS"
	envMinDepartureSeconds = "BKK_FUTAR_MIN_DEPARTURE_SECONDS"
	envMatrixRows          = "BKK_FUTAR_MATRIX_ROWS"
	envMatrixCols          = "BKK_FUTAR_MATRIX_COLS"
	envFontWidth           = "BKK_FUTAR_FONT_WIDTH"
	envFontHeight          = "BKK_FUTAR_FONT_HEIGHT"
	envXIndent             = "BKK_FUTAR_X_INDENT"
	envYIndent             = "BKK_FUTAR_Y_INDENT"
	envLatencyBarSeconds   = "BKK_FUTAR_LATENCY_BAR_SECONDS"
	envLatencyBarYIndent   = "BKK_FUTAR_LATENCY_BAR_Y_INDENT"
	envEnableForSeconds    = "BKK_FUTAR_ENABLE_FOR_SECONDS"
	envButtonChip          = "BKK_FUTAR_BUTTON_CHIP"
	envButtonLine          = "BKK_FUTAR_BUTTON_LINE"
	envButtonMaxSeconds    = "BKK_FUTAR_BUTTON_MAX_SECONDS"
	envButtonTickSeconds   = "BKK_FUTAR_BUTTON_TICK_SECONDS"
	envMetricsAddr         = "BKK_FUTAR_METRICS_ADDR"
)

const defaultAPIBaseURL = "https://futar.bkk.hu/api/query/v1/ws/otp/api/where"

// Load reads the configuration from the environment. Any malformed or
// missing required value yields a descriptive error.
func Load() (Config, error) {
	cfg := Config{
		APIBaseURL:          defaultAPIBaseURL,
		FetchTimeout:        5 * time.Second,
		TickInterval:        10 * time.Second,
		Cadence:             poll.DefaultCadence(),
		MinDepartureSeconds: layout.MinDepartureSecondsDefault,
		MatrixRows:          48,
		MatrixCols:          96,
		FontWidth:           6,
		FontHeight:          12,
		XIndent:             2,
		YIndent:             -2,
		LatencyBarSeconds:   60,
		LatencyBarYIndent:   0,
		EnableFor:           600 * time.Second,
		ButtonChip:          "gpiochip0",
		ButtonLine:          26,
		ButtonMaxInterval:   time.Second,
		ButtonTickInterval:  100 * time.Millisecond,
	}

	var err error
	if cfg.LogLevel, err = logging.ParseLevel(os.Getenv(envLogLevel)); err != nil {
		return Config{}, fmt.Errorf("%s: %w", envLogLevel, err)
	}

	if v := os.Getenv(envAPIBaseURL); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}

	cfg.APIKey = os.Getenv(envAPIKey)
	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("%s is required", envAPIKey)
	}

	sep := getDefault(envStopsSeparator, ",")
	pairSep := getDefault(envStopsPairSeparator, "=")
	if cfg.Stops, err = ParseStops(os.Getenv(envStops), sep, pairSep); err != nil {
		return Config{}, fmt.Errorf("%s: %w", envStops, err)
	}
	if len(cfg.Stops) == 0 {
		return Config{}, fmt.Errorf("%s is required", envStops)
	}

	for _, item := range []struct {
		name string
		dst  *int
	}{
		{envRequestTicks, &cfg.Cadence.RequestTicks},
		{envErrorTicks, &cfg.Cadence.ErrorTicks},
		{envMinDepartureSeconds, &cfg.MinDepartureSeconds},
		{envMatrixRows, &cfg.MatrixRows},
		{envMatrixCols, &cfg.MatrixCols},
		{envFontWidth, &cfg.FontWidth},
		{envFontHeight, &cfg.FontHeight},
		{envXIndent, &cfg.XIndent},
		{envYIndent, &cfg.YIndent},
		{envLatencyBarSeconds, &cfg.LatencyBarSeconds},
		{envLatencyBarYIndent, &cfg.LatencyBarYIndent},
		{envButtonLine, &cfg.ButtonLine},
	} {
		if err := getInt(item.name, item.dst); err != nil {
			return Config{}, err
		}
	}

	for _, item := range []struct {
		name string
		dst  *time.Duration
	}{
		{envFetchTimeoutSeconds, &cfg.FetchTimeout},
		{envTickSeconds, &cfg.TickInterval},
		{envEnableForSeconds, &cfg.EnableFor},
		{envButtonMaxSeconds, &cfg.ButtonMaxInterval},
		{envButtonTickSeconds, &cfg.ButtonTickInterval},
	} {
		if err := getSeconds(item.name, item.dst); err != nil {
			return Config{}, err
		}
	}

	if cfg.Cadence.ErrorBackoff, err = parseTickSequence(os.Getenv(envErrorTicksSequence), cfg.Cadence.ErrorBackoff); err != nil {
		return Config{}, fmt.Errorf("%s: %w", envErrorTicksSequence, err)
	}

	cfg.ButtonChip = getDefault(envButtonChip, cfg.ButtonChip)
	cfg.MetricsAddr = os.Getenv(envMetricsAddr)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	switch {
	case cfg.TickInterval <= 0:
		return fmt.Errorf("%s must be positive", envTickSeconds)
	case cfg.Cadence.RequestTicks <= 0:
		return fmt.Errorf("%s must be positive", envRequestTicks)
	case cfg.Cadence.ErrorTicks <= 0:
		return fmt.Errorf("%s must be positive", envErrorTicks)
	case cfg.FontWidth <= 0 || cfg.FontHeight <= 0:
		return fmt.Errorf("font metrics must be positive")
	case cfg.MatrixRows < cfg.FontHeight || cfg.MatrixCols < cfg.FontWidth:
		return fmt.Errorf("matrix %dx%d cannot fit a single %dx%d glyph",
			cfg.MatrixCols, cfg.MatrixRows, cfg.FontWidth, cfg.FontHeight)
	}
	return nil
}

// ParseStops decodes a stop-to-sign mapping such as
// "BKK_F02281=A,BKK_F02283=B" (with the given separators), preserving
// order. A pair that does not split into exactly two parts is an error.
func ParseStops(encoded, sep, pairSep string) ([]layout.Stop, error) {
	if encoded == "" {
		return nil, nil
	}
	var stops []layout.Stop
	for _, item := range strings.Split(encoded, sep) {
		pair := strings.Split(item, pairSep)
		if len(pair) != 2 {
			return nil, fmt.Errorf("stop mapping item %q is not a single %q-separated pair", item, pairSep)
		}
		stops = append(stops, layout.Stop{ID: pair[0], Sign: pair[1]})
	}
	return stops, nil
}

// parseTickSequence decodes a comma-separated ascending list of tick
// offsets, e.g. "1,2,4,8,16".
func parseTickSequence(encoded string, fallback []int) ([]int, error) {
	if encoded == "" {
		return fallback, nil
	}
	var seq []int
	for _, item := range strings.Split(encoded, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("tick offset %q: %w", item, err)
		}
		if len(seq) > 0 && n <= seq[len(seq)-1] {
			return nil, fmt.Errorf("tick sequence must be strictly ascending, got %q", encoded)
		}
		seq = append(seq, n)
	}
	return seq, nil
}

func getDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// getSeconds reads a (possibly fractional) number of seconds.
func getSeconds(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = time.Duration(f * float64(time.Second))
	return nil
}
