// Package button turns GPIO edges into timestamped events on a bounded
// channel. The kernel delivers edges on an interrupt-context callback;
// publishing them onto a channel keeps all state mutation in the
// supervisor's loop context.
package button

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"futarboard.hu/internal/clock"
)

// eventBuffer bounds the edge channel. Edges beyond a full buffer are
// dropped: pressing faster than the supervisor drains carries no
// additional meaning.
const eventBuffer = 16

// Input watches one GPIO line for rising edges.
type Input struct {
	line   *gpiocdev.Line
	events chan time.Time
}

// Open requests the line as a pulled-down input with rising-edge
// detection, matching a push-button wired between the pin and 3V3.
func Open(chip string, offset int, clk clock.Clock, logger *slog.Logger) (*Input, error) {
	in := &Input{
		events: make(chan time.Time, eventBuffer),
	}

	handler := func(gpiocdev.LineEvent) {
		at := clk.Now()
		select {
		case in.events <- at:
		default:
			logger.Debug("button event dropped, buffer full", slog.Time("pressed_at", at))
		}
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		return nil, fmt.Errorf("requesting GPIO line %s:%d: %w", chip, offset, err)
	}

	in.line = line
	return in, nil
}

// Events is the stream of press timestamps.
func (in *Input) Events() <-chan time.Time {
	return in.events
}

// Close releases the GPIO line.
func (in *Input) Close() error {
	return in.line.Close()
}
