package futar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"

	"futarboard.hu/internal/logging"
)

// maxBodySize caps the decoded response body. A single-stop arrivals
// response is a few hundred kilobytes at most.
const maxBodySize = 8 * 1024 * 1024

// FetchError wraps any failure while talking to the arrivals API:
// transport errors, timeouts, non-2xx statuses and malformed bodies.
// The scheduler turns it into an ERROR-mode transition; it never
// terminates the loop.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("futar fetch: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// newHTTPClient builds a dedicated client with explicit timeouts rather
// than relying on http.DefaultClient, which has none. The transport is
// cloned from http.DefaultTransport to keep proxy and dialer defaults.
func newHTTPClient(timeout time.Duration) *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 4
	transport.MaxIdleConnsPerHost = 2
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second
	// We decompress ourselves so the body size cap applies to the
	// decoded bytes.
	transport.DisableCompression = true

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Client fetches departure snapshots for a fixed set of stops.
type Client struct {
	baseURL    string
	apiKey     string
	stopIDs    []string
	httpClient *http.Client
	// limiter is a safety net: the tick state machine already bounds the
	// request cadence, but a misconfigured tick interval must not turn
	// into hammering a public API.
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient builds a Client for the arrivals-and-departures-for-stop
// endpoint under baseURL.
func NewClient(baseURL, apiKey string, stopIDs []string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		stopIDs:    stopIDs,
		httpClient: newHTTPClient(timeout),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		logger:     logger.With(slog.String("component", "futar_client")),
	}
}

// Fetch performs one GET against the arrivals endpoint and returns a new
// Snapshot. Any failure is reported as a *FetchError.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Op: "rate limit", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, &FetchError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "execute request", Err: err}
	}
	defer logging.SafeClose(resp.Body, c.logger, "response body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Op: "status", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := c.readBody(resp)
	if err != nil {
		return nil, &FetchError{Op: "read body", Err: err}
	}

	var decoded arrivalsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &FetchError{Op: "decode body", Err: err}
	}

	snapshot, err := snapshotFromResponse(&decoded)
	if err != nil {
		return nil, &FetchError{Op: "build snapshot", Err: err}
	}

	if snapshot.LimitExceeded {
		c.logger.Warn("stop time list truncated by the API")
	}

	if c.logger.Enabled(ctx, slog.LevelDebug) {
		c.logger.Debug("fetched snapshot",
			slog.Time("server_time", snapshot.ServerTime),
			slog.Int("departures", len(snapshot.Departures)),
			slog.String("dump", spew.Sdump(snapshot.Departures)))
	}

	return snapshot, nil
}

func (c *Client) requestURL() string {
	params := url.Values{}
	params.Set("key", c.apiKey)
	for _, id := range c.stopIDs {
		params.Add("stopId", id)
	}
	params.Set("minutesBefore", "0")
	return c.baseURL + "/arrivals-and-departures-for-stop.json?" + params.Encode()
}

// readBody reads the capped response body, transparently inflating a
// gzip-encoded payload.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer logging.SafeClose(gz, c.logger, "gzip reader")
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxBodySize {
		return nil, fmt.Errorf("response exceeds size limit of %d bytes", maxBodySize)
	}
	return body, nil
}
