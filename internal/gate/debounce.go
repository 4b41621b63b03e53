package gate

import "time"

// Debouncer filters raw button edges into activation signals. With a
// positive MaxInterval two presses that close together count as one
// deliberate activation, so a brush against the button (or electrical
// noise on the line) does not light the board. A non-positive
// MaxInterval degrades to the single-press variant: every edge
// activates.
type Debouncer struct {
	maxInterval time.Duration
	lastPress   time.Time
	pressed     bool
}

// NewDebouncer builds a Debouncer with the given double-press window.
func NewDebouncer(maxInterval time.Duration) *Debouncer {
	return &Debouncer{maxInterval: maxInterval}
}

// Press records an edge at the given instant and reports whether it
// completes an activation.
func (d *Debouncer) Press(at time.Time) bool {
	if d.maxInterval <= 0 {
		return true
	}

	hadPrevious := d.pressed
	previous := d.lastPress
	d.lastPress = at
	d.pressed = true

	return hadPrevious && at.Sub(previous) <= d.maxInterval
}
