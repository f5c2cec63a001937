package scrollkeeper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/scrollkeeper/internal/browser"
)

// Session binds a Keeper to a live Chrome page: it manages the browser,
// opens the tab, installs the in-page hooks and routes their events into
// the keeper. Create one per observed page.
type Session struct {
	cfg    *Config
	logger *slog.Logger
	mgr    *browser.Manager
	tab    *browser.Tab
	keeper *Keeper
}

// NewSession creates a Session from configuration.
func NewSession(cfg *Config, logger *slog.Logger) *Session {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:         cfg.Browser.Remote,
		Headful:           cfg.Browser.Stealth == "headful",
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Logger:            logger,
	})

	return &Session{cfg: cfg, logger: logger, mgr: mgr}
}

// Start launches the browser, opens pageURL and enables restoration.
// ErrUnsupported means the page's history mechanism has no restoration
// mode; the session stays attached but performs no restoration.
func (s *Session) Start(ctx context.Context, pageURL string) error {
	if _, err := s.mgr.Start(ctx); err != nil {
		return fmt.Errorf("scrollkeeper: start browser: %w", err)
	}

	tab, err := browser.OpenTab(ctx, s.mgr, pageURL, s.logger)
	if err != nil {
		return fmt.Errorf("scrollkeeper: open tab: %w", err)
	}
	s.tab = tab

	k := New(*s.cfg, tab, tab, s.logger)
	if err := k.Enable(); err != nil {
		s.logger.Info("scrollkeeper: restoration disabled for page",
			"url", pageURL, "error", err)
		s.keeper = k
		return err
	}
	s.keeper = k

	err = tab.InstallHooks(ctx, browser.Handlers{
		Mounted:            k.MarkMounted,
		NavigationFinished: k.NavigationFinished,
		PopState:           k.PopState,
		BeforeUnload:       k.BeforeUnload,
	})
	if err != nil {
		return fmt.Errorf("scrollkeeper: install hooks: %w", err)
	}

	s.logger.Info("scrollkeeper: session started", "url", pageURL)
	return nil
}

// Keeper returns the session's keeper, nil before Start.
func (s *Session) Keeper() *Keeper {
	return s.keeper
}

// Stop tears down the keeper, the tab and the browser.
func (s *Session) Stop() {
	if s.keeper != nil {
		s.keeper.Close()
	}
	if s.tab != nil {
		s.tab.Close()
	}
	s.mgr.Close()
}
