// Package gate bounds when the board runs at all: an enable window armed
// by button presses, a double-press debouncer, and a supervisor that
// starts and stops the display worker on window transitions.
package gate

import "time"

// Window is the bounded activation window. The zero value is inactive.
//
// A non-positive duration arms the window without bound; that is the
// convention for boards configured to stay on once enabled.
type Window struct {
	until     time.Time
	unbounded bool
	armed     bool
}

// Arm opens (or re-opens) the window at now. Re-arming while active
// extends the window from the new instant; windows never stack.
func (w *Window) Arm(now time.Time, d time.Duration) {
	w.armed = true
	if d <= 0 {
		w.unbounded = true
		return
	}
	w.unbounded = false
	w.until = now.Add(d)
}

// Active reports whether the window is open at now.
func (w *Window) Active(now time.Time) bool {
	if !w.armed {
		return false
	}
	return w.unbounded || now.Before(w.until)
}
