// Package poll decides, once per display tick, whether the arrivals API
// should be queried. Fetch failures flip the scheduler into an error
// mode with exponential early retries followed by a steady retry period,
// so a flaky API neither gets hammered nor freezes the board.
package poll

import "slices"

// Mode is the scheduler's operating mode.
type Mode int

const (
	// ModeNormal polls at the regular request cadence.
	ModeNormal Mode = iota
	// ModeError polls on the backoff sequence, then periodically.
	ModeError
)

func (m Mode) String() string {
	if m == ModeError {
		return "error"
	}
	return "normal"
}

// Cadence holds the tick offsets governing fetch decisions.
type Cadence struct {
	// RequestTicks fetches every Nth tick in normal mode.
	RequestTicks int
	// ErrorBackoff lists the tick offsets of the early retries after
	// entering error mode.
	ErrorBackoff []int
	// ErrorTicks is the steady retry period once the backoff sequence
	// is exhausted.
	ErrorTicks int
}

// DefaultCadence matches a 10-second tick: a request every 30 seconds
// when healthy, retries after 10/20/40/80/160 seconds on failure and
// every 5 minutes thereafter.
func DefaultCadence() Cadence {
	return Cadence{
		RequestTicks: 3,
		ErrorBackoff: []int{1, 2, 4, 8, 16},
		ErrorTicks:   30,
	}
}

// Scheduler is the tick state machine. It is not safe for concurrent
// use; each display loop owns exactly one.
//
// The caller drives it in a fixed order per tick: consult ShouldFetch,
// report the fetch outcome (if any) via RecordSuccess or RecordFailure,
// then Advance. The tick counter resets to zero exactly on a mode
// change and never otherwise.
type Scheduler struct {
	cadence Cadence
	mode    Mode
	tick    int
}

// NewScheduler starts in normal mode at tick zero, so the very first
// evaluation requests a fetch.
func NewScheduler(cadence Cadence) *Scheduler {
	return &Scheduler{cadence: cadence}
}

// Mode returns the current operating mode.
func (s *Scheduler) Mode() Mode {
	return s.mode
}

// Tick returns the current tick counter value.
func (s *Scheduler) Tick() int {
	return s.tick
}

// ShouldFetch reports whether the current tick is a fetch tick.
func (s *Scheduler) ShouldFetch() bool {
	if s.mode == ModeError {
		return slices.Contains(s.cadence.ErrorBackoff, s.tick) || s.tick%s.cadence.ErrorTicks == 0
	}
	return s.tick%s.cadence.RequestTicks == 0
}

// RecordSuccess notes a successful fetch. Entering normal mode from
// error mode resets the tick counter; staying in normal mode does not.
func (s *Scheduler) RecordSuccess() {
	if s.mode == ModeError {
		s.mode = ModeNormal
		s.tick = 0
	}
}

// RecordFailure notes a failed fetch. Entering error mode from normal
// mode resets the tick counter; staying in error mode does not.
func (s *Scheduler) RecordFailure() {
	if s.mode == ModeNormal {
		s.mode = ModeError
		s.tick = 0
	}
}

// Advance increments the tick counter. Called exactly once per
// evaluation, after the fetch decision and any mode transition.
func (s *Scheduler) Advance() {
	s.tick++
}
