package scrollkeeper

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.RestorationTimeout != 3*time.Second {
		t.Errorf("restoration timeout: got %v, want 3s", cfg.RestorationTimeout)
	}
	if cfg.PollInterval != 50*time.Millisecond {
		t.Errorf("poll interval: got %v, want 50ms", cfg.PollInterval)
	}
	if cfg.DebugLogging {
		t.Error("debug logging should default to off")
	}
	if cfg.Browser.Stealth != "headless" {
		t.Errorf("stealth: got %q, want headless", cfg.Browser.Stealth)
	}
	if cfg.Browser.NavigationTimeout != 30*time.Second {
		t.Errorf("navigation timeout: got %v, want 30s", cfg.Browser.NavigationTimeout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrollkeeper.yaml")
	content := `
restoration_timeout_ms: 1000
poll_interval_ms: 25
debug_logging: true
journal:
  path: /tmp/journal.db
browser:
  remote: ws://localhost:9222
  stealth: headful
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.RestorationTimeout != time.Second {
		t.Errorf("restoration timeout: got %v", cfg.RestorationTimeout)
	}
	if cfg.PollInterval != 25*time.Millisecond {
		t.Errorf("poll interval: got %v", cfg.PollInterval)
	}
	if !cfg.DebugLogging {
		t.Error("debug logging not loaded")
	}
	if cfg.Journal.Path != "/tmp/journal.db" {
		t.Errorf("journal path: got %q", cfg.Journal.Path)
	}
	if cfg.Browser.Remote != "ws://localhost:9222" {
		t.Errorf("browser remote: got %q", cfg.Browser.Remote)
	}
	if cfg.Browser.Stealth != "headful" {
		t.Errorf("stealth: got %q", cfg.Browser.Stealth)
	}
	// Unset fields still get defaults.
	if cfg.Browser.NavigationTimeout != 30*time.Second {
		t.Errorf("navigation timeout default: got %v", cfg.Browser.NavigationTimeout)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile("/nonexistent/scrollkeeper.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
