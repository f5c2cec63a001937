// Package scrollkeeper restores the root viewport scroll position of a
// browser page across SPA navigations and hard reloads. Browsers hand
// restoration back to the application as soon as content loads
// asynchronously after a navigation: by the time the data arrives, the
// native mechanism has already given up. scrollkeeper stamps the outgoing
// history entry with the live position on every navigation, then polls the
// document after each transition until it is tall enough to scroll back, or
// forces the move when the budget runs out.
//
// The browser collaborators are injected as interfaces: nav.Ops for the
// history mechanism, Viewport for scroll geometry. internal/browser wires
// both to a live Chrome page over CDP; tests wire fakes.
package scrollkeeper

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/scrollkeeper/geom"
	"github.com/hazyhaar/scrollkeeper/internal/journal"
	"github.com/hazyhaar/scrollkeeper/internal/restore"
	"github.com/hazyhaar/scrollkeeper/nav"
)

// ErrUnsupported is returned by Enable when the host's history mechanism
// exposes no settable scroll restoration mode. The keeper then degrades to
// a safe no-op: every handler returns immediately.
var ErrUnsupported = errors.New("scrollkeeper: history mechanism has no scroll restoration mode")

// Viewport is live access to the root scrolling element.
type Viewport interface {
	// Scroll reads the current offsets.
	Scroll() (geom.Position, error)
	// ScrollTo commands a scroll to the given offsets.
	ScrollTo(p geom.Position) error
	// Metrics reads a geometry snapshot for reachability checks.
	Metrics() (geom.Metrics, error)
}

// Keeper is the lifecycle coordinator. It owns the mounted flag and the
// popped-state slot, installs the navigation interceptor, and decides which
// target position each finished navigation restores to.
//
// All handlers are safe to call from any goroutine and are serialized
// internally; calling a handler on a disabled keeper is a no-op.
type Keeper struct {
	cfg    Config
	logger *slog.Logger
	ops    nav.Ops
	vp     Viewport
	icpt   *nav.Interceptor
	sched  *restore.Scheduler

	jrnl *journal.Store
	jdb  *sql.DB

	mu        sync.Mutex
	enabled   bool
	mounted   bool
	popped    nav.State
	hasPopped bool
}

// New creates a Keeper over the given history mechanism and viewport.
// Call Enable before use.
func New(cfg Config, ops nav.Ops, vp Viewport, logger *slog.Logger) *Keeper {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	k := &Keeper{
		cfg:    cfg,
		logger: logger,
		ops:    ops,
		vp:     vp,
	}

	k.icpt = nav.NewInterceptor(nav.InterceptorConfig{
		Ops:     ops,
		Mounted: k.isMounted,
		Scroll:  vp.Scroll,
		Logger:  logger,
		Debug:   cfg.DebugLogging,
	})

	k.sched = restore.New(vp, restore.Config{
		Interval:  cfg.PollInterval,
		Budget:    cfg.RestorationTimeout,
		Logger:    logger,
		Debug:     cfg.DebugLogging,
		OnResolve: k.onResolve,
	})

	return k
}

// Enable performs the one-time initialization: capability check, manual
// restoration mode, optional journal. Absence of a restoration mode is a
// hard environment precondition, not a recoverable error: the keeper logs
// one diagnostic, stays disabled, and returns ErrUnsupported. A journal
// that fails to open never disables the keeper.
func (k *Keeper) Enable() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	_, supported, err := k.ops.ScrollRestoration()
	if err != nil {
		k.logger.Info("scrollkeeper: restoration mode probe failed, disabled", "error", err)
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	if !supported {
		k.logger.Info("scrollkeeper: no scroll restoration mode, disabled")
		return ErrUnsupported
	}

	if err := k.ops.SetScrollRestoration("manual"); err != nil {
		return fmt.Errorf("scrollkeeper: set manual restoration: %w", err)
	}
	k.enabled = true

	if k.cfg.Journal.Path != "" {
		k.openJournal()
	}

	if k.cfg.DebugLogging {
		k.logger.Debug("scrollkeeper: enabled",
			"timeout", k.cfg.RestorationTimeout, "interval", k.cfg.PollInterval)
	}
	return nil
}

// Nav returns the installed drop-in replacements for the history primitives.
// Hosts route every pushState/replaceState through it.
func (k *Keeper) Nav() *nav.Interceptor {
	return k.icpt
}

// MarkMounted records that the application has finished mounting. Fires
// once; repeated calls are no-ops. Before this, stamping carries over the
// stored position instead of recording the meaningless pre-paint (0,0).
func (k *Keeper) MarkMounted() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.enabled || k.mounted {
		return
	}
	k.mounted = true
	if k.cfg.DebugLogging {
		k.logger.Debug("scrollkeeper: app mounted")
	}
}

// NavigationFinished runs after a route transition completes. It resolves a
// target — the staged popped state if the transition came from back/forward,
// else the current entry's stamp — and starts a restoration attempt. With
// no restorable position, it scrolls straight to origin: the fresh
// navigation default.
func (k *Keeper) NavigationFinished() {
	k.mu.Lock()
	if !k.enabled {
		k.mu.Unlock()
		return
	}

	var target geom.Position
	found := false
	source := ""

	if k.hasPopped {
		target, found = nav.ReadPosition(k.popped)
		k.popped, k.hasPopped = nil, false
		source = "popstate"
	}
	if !found {
		if st, err := k.ops.State(); err != nil {
			k.logger.Warn("scrollkeeper: read history state", "error", err)
		} else {
			target, found = nav.ReadPosition(st)
			source = "entry"
		}
	}
	k.mu.Unlock()

	if found && target.Finite() {
		if k.cfg.DebugLogging {
			k.logger.Debug("scrollkeeper: restoring",
				"x", target.X, "y", target.Y, "source", source)
		}
		k.record(journal.EventRestore, target, source)
		k.sched.Begin(target)
		return
	}

	// Fresh navigation: no stamp, no polling, straight to the top.
	k.sched.Cancel()
	if err := k.vp.ScrollTo(geom.Origin); err != nil {
		k.logger.Warn("scrollkeeper: origin scroll failed", "error", err)
	}
	k.record(journal.EventOrigin, geom.Origin, "")
	if k.cfg.DebugLogging {
		k.logger.Debug("scrollkeeper: no stored position, scrolled to origin")
	}
}

// ContentSettled is the safety net for apps whose initial async content
// arrives after the router reports the transition finished. Either signal
// may fire alone; both resolve the same way.
func (k *Keeper) ContentSettled() {
	k.NavigationFinished()
}

// PopState stages the state carried by a back/forward event for the next
// NavigationFinished to consume. It never scrolls itself: the DOM for the
// restored page may not exist yet. States without finite scroll coordinates
// leave the slot untouched; a newer event overwrites a stale unconsumed one.
func (k *Keeper) PopState(state nav.State) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.enabled {
		return
	}

	pos, ok := nav.ReadPosition(state)
	if !ok {
		return
	}
	k.popped = state
	k.hasPopped = true
	if k.cfg.DebugLogging {
		k.logger.Debug("scrollkeeper: staged popped state", "x", pos.X, "y", pos.Y)
	}
	k.recordLocked(journal.EventPopped, pos, "")
}

// BeforeUnload stamps the current entry one last time so a hard reload can
// restore, and cancels any in-flight attempt.
func (k *Keeper) BeforeUnload() {
	k.mu.Lock()
	if !k.enabled {
		k.mu.Unlock()
		return
	}
	k.mu.Unlock()

	k.sched.Cancel()
	if err := k.icpt.StampCurrent(); err != nil {
		k.logger.Warn("scrollkeeper: unload stamp failed", "error", err)
		return
	}
	k.record(journal.EventUnload, geom.Position{}, "")
	if k.cfg.DebugLogging {
		k.logger.Debug("scrollkeeper: stamped entry before unload")
	}
}

// Close cancels any pending attempt and flushes the journal.
func (k *Keeper) Close() error {
	k.sched.Cancel()

	k.mu.Lock()
	jrnl, jdb := k.jrnl, k.jdb
	k.jrnl, k.jdb = nil, nil
	k.mu.Unlock()

	if jrnl != nil {
		jrnl.Close()
	}
	if jdb != nil {
		return jdb.Close()
	}
	return nil
}

func (k *Keeper) isMounted() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mounted
}

func (k *Keeper) onResolve(target geom.Position, outcome string) {
	event := journal.EventSatisfied
	if outcome == "timed_out" {
		event = journal.EventTimedOut
	}
	k.record(event, target, outcome)
}

// openJournal must be called with k.mu held.
func (k *Keeper) openJournal() {
	db, err := sql.Open("sqlite", k.cfg.Journal.Path)
	if err != nil {
		k.logger.Warn("scrollkeeper: open journal", "path", k.cfg.Journal.Path, "error", err)
		return
	}
	st := journal.NewStore(db)
	if err := st.Init(); err != nil {
		k.logger.Warn("scrollkeeper: init journal", "error", err)
		st.Close()
		db.Close()
		return
	}
	k.jrnl = st
	k.jdb = db
}

func (k *Keeper) record(event string, pos geom.Position, detail string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.recordLocked(event, pos, detail)
}

func (k *Keeper) recordLocked(event string, pos geom.Position, detail string) {
	if k.jrnl == nil {
		return
	}
	k.jrnl.RecordAsync(&journal.Entry{Event: event, X: pos.X, Y: pos.Y, Detail: detail})
}
