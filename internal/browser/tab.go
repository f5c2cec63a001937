package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/scrollkeeper/geom"
	"github.com/hazyhaar/scrollkeeper/idgen"
	"github.com/hazyhaar/scrollkeeper/nav"
)

// Tab wraps a Rod page and implements the scrollkeeper collaborator
// contracts on top of it: nav.Ops via the History API and the viewport
// contract via window/document geometry. History states cross the CDP
// boundary as JSON, so states read back through State are decoded maps.
type Tab struct {
	Page    *rod.Page
	PageURL string
	PageID  string

	logger *slog.Logger

	// Scrollbar thickness will not change for the life of the page, so the
	// probe element trick runs once.
	sbOnce  sync.Once
	sbWidth float64
	sbErr   error
}

// OpenTab creates a stealth tab, navigates to the URL, and waits for load.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string, logger *slog.Logger) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	if logger == nil {
		logger = slog.Default()
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{
		Page:    page,
		PageURL: pageURL,
		PageID:  idgen.Prefixed("page_", idgen.Default)(),
		logger:  logger,
	}, nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}

// --- nav.Ops ---

// State reads the current history entry's state object.
func (t *Tab) State() (nav.State, error) {
	res, err := t.Page.Eval(`() => JSON.stringify(history.state)`)
	if err != nil {
		return nil, fmt.Errorf("browser: read history state: %w", err)
	}
	raw := res.Value.Str()
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var state nav.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("browser: decode history state: %w", err)
	}
	return state, nil
}

// ReplaceState overwrites the current entry. An empty url keeps the
// current one.
func (t *Tab) ReplaceState(state nav.State, title, url string) error {
	return t.mutateHistory("replaceState", state, title, url)
}

// PushState creates a new entry and makes it current.
func (t *Tab) PushState(state nav.State, title, url string) error {
	return t.mutateHistory("pushState", state, title, url)
}

func (t *Tab) mutateHistory(op string, state nav.State, title, url string) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("browser: encode history state: %w", err)
	}

	_, err = t.Page.Eval(`(op, raw, title, url) => {
		const state = JSON.parse(raw);
		if (url === '') {
			history[op](state, title);
		} else {
			history[op](state, title, url);
		}
	}`, op, string(data), title, url)
	if err != nil {
		return fmt.Errorf("browser: %s: %w", op, err)
	}
	return nil
}

// ScrollRestoration reports the history mechanism's restoration mode and
// whether the attribute exists at all.
func (t *Tab) ScrollRestoration() (string, bool, error) {
	res, err := t.Page.Eval(`() => ('scrollRestoration' in history) ? history.scrollRestoration : ''`)
	if err != nil {
		return "", false, fmt.Errorf("browser: read scrollRestoration: %w", err)
	}
	mode := res.Value.Str()
	return mode, mode != "", nil
}

// SetScrollRestoration switches the browser's restoration mode.
func (t *Tab) SetScrollRestoration(mode string) error {
	_, err := t.Page.Eval(`(mode) => { history.scrollRestoration = mode; }`, mode)
	if err != nil {
		return fmt.Errorf("browser: set scrollRestoration: %w", err)
	}
	return nil
}

// --- viewport ---

// Scroll reads the live viewport offsets.
func (t *Tab) Scroll() (geom.Position, error) {
	res, err := t.Page.Eval(`() => JSON.stringify({x: window.pageXOffset, y: window.pageYOffset})`)
	if err != nil {
		return geom.Position{}, fmt.Errorf("browser: read scroll: %w", err)
	}

	var pos geom.Position
	if err := json.Unmarshal([]byte(res.Value.Str()), &pos); err != nil {
		return geom.Position{}, fmt.Errorf("browser: decode scroll: %w", err)
	}
	return pos, nil
}

// ScrollTo commands the viewport to the given offsets.
func (t *Tab) ScrollTo(p geom.Position) error {
	_, err := t.Page.Eval(`(x, y) => window.scrollTo(x, y)`, p.X, p.Y)
	if err != nil {
		return fmt.Errorf("browser: scrollTo: %w", err)
	}
	return nil
}

// Metrics reads a geometry snapshot, including the cached scrollbar width.
func (t *Tab) Metrics() (geom.Metrics, error) {
	sb, err := t.scrollbarWidth()
	if err != nil {
		// A failed probe degrades to zero compensation rather than blocking
		// restoration.
		t.logger.Warn("browser: scrollbar probe failed", "error", err)
		sb = 0
	}

	res, err := t.Page.Eval(`() => JSON.stringify({
		body_scroll: {width: document.body.scrollWidth, height: document.body.scrollHeight},
		body_offset: {width: document.body.offsetWidth, height: document.body.offsetHeight},
		root_client: {width: document.documentElement.clientWidth, height: document.documentElement.clientHeight},
		root_scroll: {width: document.documentElement.scrollWidth, height: document.documentElement.scrollHeight},
		root_offset: {width: document.documentElement.offsetWidth, height: document.documentElement.offsetHeight},
		viewport: {width: window.innerWidth, height: window.innerHeight}
	})`)
	if err != nil {
		return geom.Metrics{}, fmt.Errorf("browser: read metrics: %w", err)
	}

	var m geom.Metrics
	if err := json.Unmarshal([]byte(res.Value.Str()), &m); err != nil {
		return geom.Metrics{}, fmt.Errorf("browser: decode metrics: %w", err)
	}
	m.ScrollbarWidth = sb
	return m, nil
}

// scrollbarWidth measures the default scrollbar thickness once per tab: a
// transient off-flow container with forced scrollbars, thickness = offset
// width minus client width. The probe element is removed before returning.
func (t *Tab) scrollbarWidth() (float64, error) {
	t.sbOnce.Do(func() {
		res, err := t.Page.Eval(`() => {
			const probe = document.createElement('div');
			probe.style.position = 'absolute';
			probe.style.top = '-9999px';
			probe.style.width = '100px';
			probe.style.height = '100px';
			probe.style.overflow = 'scroll';
			document.body.appendChild(probe);
			const w = probe.offsetWidth - probe.clientWidth;
			probe.remove();
			return w;
		}`)
		if err != nil {
			t.sbErr = err
			return
		}
		t.sbWidth = res.Value.Num()
	})
	return t.sbWidth, t.sbErr
}
