package nav

import (
	"fmt"
	"log/slog"

	"github.com/hazyhaar/scrollkeeper/geom"
)

// Ops is the host's history mechanism: the two overridable state-mutating
// navigation primitives plus state and restoration-mode access. An empty
// url keeps the current URL, matching History API semantics.
type Ops interface {
	// State returns the current entry's associated state.
	State() (State, error)

	// ReplaceState overwrites the current entry.
	ReplaceState(state State, title, url string) error

	// PushState creates a new entry and makes it current.
	PushState(state State, title, url string) error

	// ScrollRestoration returns the current restoration mode and whether
	// the mechanism supports one at all. Unsupported disables scrollkeeper.
	ScrollRestoration() (mode string, supported bool, err error)

	// SetScrollRestoration switches the restoration mode ("auto"/"manual").
	SetScrollRestoration(mode string) error
}

// Interceptor wraps Ops so that every transition stamps the outgoing
// entry's state with the scroll position in effect at that moment. It is a
// drop-in replacement: same signatures, same delegation, only the state
// argument is altered. Errors from the underlying primitives propagate
// unchanged.
type Interceptor struct {
	ops     Ops
	mounted func() bool
	scroll  func() (geom.Position, error)
	logger  *slog.Logger
	debug   bool
}

// InterceptorConfig wires the Interceptor's collaborators.
type InterceptorConfig struct {
	Ops Ops

	// Mounted reports whether the application has finished mounting.
	// Before that, stamping falls back to carrying over the stored position.
	Mounted func() bool

	// Scroll reads the live viewport position.
	Scroll func() (geom.Position, error)

	Logger *slog.Logger
	Debug  bool
}

// NewInterceptor creates an Interceptor over the given history primitives.
func NewInterceptor(cfg InterceptorConfig) *Interceptor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Interceptor{
		ops:     cfg.Ops,
		mounted: cfg.Mounted,
		scroll:  cfg.Scroll,
		logger:  cfg.Logger,
		debug:   cfg.Debug,
	}
}

// ReplaceState stamps state with the current position and delegates.
func (i *Interceptor) ReplaceState(state State, title, url string) error {
	return i.ops.ReplaceState(i.stamp(state), title, url)
}

// PushState first re-stamps the entry being left behind (via the wrapped
// ReplaceState, so it carries its final position), then delegates the new
// entry creation unchanged. The fresh entry starts with no scroll stamp; it
// is populated on the next overwrite or unload.
func (i *Interceptor) PushState(state State, title, url string) error {
	cur, err := i.ops.State()
	if err != nil {
		return fmt.Errorf("nav: read current state: %w", err)
	}
	if err := i.ReplaceState(cur, "", ""); err != nil {
		return err
	}
	return i.ops.PushState(state, title, url)
}

// StampCurrent overwrites the current entry with its own re-stamped state.
// Used by the before-unload hook so a hard reload can restore.
func (i *Interceptor) StampCurrent() error {
	cur, err := i.ops.State()
	if err != nil {
		return fmt.Errorf("nav: read current state: %w", err)
	}
	return i.ReplaceState(cur, "", "")
}

func (i *Interceptor) stamp(state State) State {
	if i.mounted == nil || !i.mounted() {
		// Pre-mount: live scroll is meaningless, keep whatever position the
		// stored entry already carries.
		prior, err := i.ops.State()
		if err != nil {
			i.logger.Warn("nav: read stored state for carry-over", "error", err)
			return state.Clone()
		}
		out := CarryOver(state, prior)
		if i.debug {
			i.logger.Debug("nav: pre-mount stamp carried over stored position")
		}
		return out
	}

	pos, err := i.scroll()
	if err != nil {
		i.logger.Warn("nav: read live scroll, skipping stamp", "error", err)
		return state.Clone()
	}
	if i.debug {
		i.logger.Debug("nav: stamped outgoing entry", "x", pos.X, "y", pos.Y)
	}
	return Stamp(state, pos)
}
