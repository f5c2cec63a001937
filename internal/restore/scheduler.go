// Package restore implements the polling scheduler that moves the viewport
// to a target position once the document has grown tall enough, or forces
// the move when the budget runs out.
package restore

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/scrollkeeper/geom"
)

// Viewport is the narrow slice of viewport access the scheduler needs.
type Viewport interface {
	Metrics() (geom.Metrics, error)
	ScrollTo(p geom.Position) error
}

// attempt state machine.
type state int

const (
	stateIdle state = iota
	statePolling
	stateSatisfied
	stateTimedOut
)

func (s state) String() string {
	switch s {
	case statePolling:
		return "polling"
	case stateSatisfied:
		return "satisfied"
	case stateTimedOut:
		return "timed_out"
	default:
		return "idle"
	}
}

// Config tunes the polling loop.
type Config struct {
	// Interval is the poll cadence. Default: 50ms.
	Interval time.Duration
	// Budget is the total time allowed before the scroll is forced. Default: 3s.
	Budget time.Duration

	Logger *slog.Logger
	Debug  bool

	// OnResolve, if set, is called once per attempt after the scroll fires,
	// with the terminal state name ("satisfied" or "timed_out").
	OnResolve func(target geom.Position, outcome string)
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = 50 * time.Millisecond
	}
	if c.Budget <= 0 {
		c.Budget = 3 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scheduler runs at most one restoration attempt at a time. Beginning a new
// attempt supersedes any pending one: the generation counter is bumped and
// stale timer callbacks observe it and die, so two attempts can never race
// a scroll-forcing call.
type Scheduler struct {
	cfg Config
	vp  Viewport

	mu       sync.Mutex
	gen      uint64
	st       state
	target   geom.Position
	deadline time.Time
	timer    *time.Timer
}

// New creates a Scheduler over the given viewport.
func New(vp Viewport, cfg Config) *Scheduler {
	cfg.defaults()
	return &Scheduler{cfg: cfg, vp: vp}
}

// Begin starts a restoration attempt toward target, superseding any pending
// attempt. The first reachability check runs after one poll interval, giving
// layout from a just-finished navigation a tick to settle.
func (s *Scheduler) Begin(target geom.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	s.st = statePolling
	s.target = target
	s.deadline = time.Now().Add(s.cfg.Budget)

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Interval, func() { s.step(gen) })

	if s.cfg.Debug {
		s.cfg.Logger.Debug("restore: attempt started",
			"x", target.X, "y", target.Y, "budget", s.cfg.Budget)
	}
}

// Cancel invalidates any pending attempt without scrolling.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.st = stateIdle
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) step(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.st != statePolling {
		// Superseded or cancelled while the timer was in flight.
		s.mu.Unlock()
		return
	}
	target := s.target
	expired := time.Now().After(s.deadline)
	s.mu.Unlock()

	reachable := false
	m, err := s.vp.Metrics()
	if err != nil {
		s.cfg.Logger.Warn("restore: read metrics", "error", err)
	} else {
		reachable = m.Reaches(target)
	}

	s.mu.Lock()
	if gen != s.gen || s.st != statePolling {
		s.mu.Unlock()
		return
	}

	if !reachable && !expired {
		s.timer = time.AfterFunc(s.cfg.Interval, func() { s.step(gen) })
		s.mu.Unlock()
		return
	}

	// Terminal: scroll exactly once, best effort even on timeout. The
	// browser's own clamping handles any residual discrepancy, so there is
	// no re-verify after this call.
	if reachable {
		s.st = stateSatisfied
	} else {
		s.st = stateTimedOut
	}
	outcome := s.st.String()
	s.timer = nil
	s.mu.Unlock()

	if err := s.vp.ScrollTo(target); err != nil {
		s.cfg.Logger.Warn("restore: scroll failed",
			"x", target.X, "y", target.Y, "error", err)
	} else if s.cfg.Debug {
		s.cfg.Logger.Debug("restore: attempt resolved",
			"x", target.X, "y", target.Y, "outcome", outcome)
	}

	if s.cfg.OnResolve != nil {
		s.cfg.OnResolve(target, outcome)
	}
}
