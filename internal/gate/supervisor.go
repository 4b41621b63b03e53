package gate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"futarboard.hu/internal/clock"
)

// Worker is one activation of the display: it owns its own tick loop
// and must return promptly once its context is cancelled.
type Worker func(ctx context.Context)

// Supervisor evaluates the enable window on a fast tick and keeps
// exactly one worker running while the window is open. It deliberately
// runs in its own goroutine, decoupled from the worker's slow tick
// loop, so a stalled fetch can never delay a window-expiry check.
type Supervisor struct {
	window    Window
	debouncer *Debouncer
	clock     clock.Clock
	logger    *slog.Logger

	enableFor time.Duration
	tick      time.Duration

	worker Worker
	events <-chan time.Time

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewSupervisor wires a supervisor to a stream of raw button edges and
// a worker.
//
// enableFor bounds each activation; non-positive means an activation
// never expires. tick is the supervisor's own evaluation interval and
// should stay well below a second so expiry feels immediate.
func NewSupervisor(events <-chan time.Time, worker Worker, enableFor, tick, maxPressInterval time.Duration, clk clock.Clock, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		debouncer: NewDebouncer(maxPressInterval),
		clock:     clk,
		logger:    logger.With(slog.String("component", "supervisor")),
		enableFor: enableFor,
		tick:      tick,
		worker:    worker,
		events:    events,
	}
}

// Run evaluates the window until ctx is cancelled, then stops any
// running worker before returning.
func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Info("starting button supervisor loop")
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopWorker()
			s.wg.Wait()
			s.logger.Info("supervisor loop finished")
			return
		case <-ticker.C:
			s.step(s.clock.Now())
		}
	}
}

// step is one supervisor evaluation: consume pending button edges, then
// reconcile the worker with the window state.
func (s *Supervisor) step(now time.Time) {
	s.drainEvents()

	active := s.window.Active(now)
	switch {
	case active && s.cancel == nil:
		s.startWorker()
	case !active && s.cancel != nil:
		s.stopWorker()
	}
}

// drainEvents applies all queued edges without blocking.
func (s *Supervisor) drainEvents() {
	for {
		select {
		case at := <-s.events:
			if s.debouncer.Press(at) {
				s.logger.Debug("button activation", slog.Time("pressed_at", at))
				s.window.Arm(at, s.enableFor)
			}
		default:
			return
		}
	}
}

func (s *Supervisor) startWorker() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.wg.Add(1)

	s.logger.Info("enable window opened, starting display worker")
	go func(done chan struct{}) {
		defer s.wg.Done()
		defer close(done)
		s.worker(ctx)
	}(s.done)
}

// stopWorker cancels the worker and waits for it to exit, so a new
// activation can never race a dying worker for the matrix.
func (s *Supervisor) stopWorker() {
	if s.cancel == nil {
		return
	}
	s.logger.Info("enable window closed, stopping display worker")
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}
