package scrollkeeper

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level scrollkeeper configuration.
type Config struct {
	// RestorationTimeout is the scheduler's total budget before the scroll
	// is forced regardless of document size. Default: 3s.
	RestorationTimeout time.Duration

	// PollInterval is the scheduler's retry cadence. Default: 50ms.
	PollInterval time.Duration

	// DebugLogging enables verbose tracing of every hook, stamp and restore
	// decision. Default: false.
	DebugLogging bool

	Journal JournalConfig
	Browser BrowserConfig
}

// JournalConfig controls the optional SQLite decision journal.
type JournalConfig struct {
	// Path to the journal database. Empty disables the journal.
	Path string
}

// BrowserConfig controls the go-rod adapter and the scrollkeeper command.
// The library core never reads these.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via the rod launcher.
	Remote string

	// Stealth selects the automation mode: headless (default) or headful.
	Stealth string

	// NavigationTimeout bounds the initial page load. Default: 30s.
	NavigationTimeout time.Duration
}

// fileConfig is the YAML shape. Durations are plain millisecond integers,
// matching the upstream option names.
type fileConfig struct {
	RestorationTimeoutMs int64 `yaml:"restoration_timeout_ms"`
	PollIntervalMs       int64 `yaml:"poll_interval_ms"`
	DebugLogging         bool  `yaml:"debug_logging"`
	Journal              struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
	Browser struct {
		Remote              string `yaml:"remote"`
		Stealth             string `yaml:"stealth"`
		NavigationTimeoutMs int64  `yaml:"navigation_timeout_ms"`
	} `yaml:"browser"`
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scrollkeeper: read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("scrollkeeper: parse config: %w", err)
	}

	cfg := &Config{
		RestorationTimeout: time.Duration(fc.RestorationTimeoutMs) * time.Millisecond,
		PollInterval:       time.Duration(fc.PollIntervalMs) * time.Millisecond,
		DebugLogging:       fc.DebugLogging,
		Journal:            JournalConfig{Path: fc.Journal.Path},
		Browser: BrowserConfig{
			Remote:            fc.Browser.Remote,
			Stealth:           fc.Browser.Stealth,
			NavigationTimeout: time.Duration(fc.Browser.NavigationTimeoutMs) * time.Millisecond,
		},
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RestorationTimeout <= 0 {
		c.RestorationTimeout = 3 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.NavigationTimeout <= 0 {
		c.Browser.NavigationTimeout = 30 * time.Second
	}
}
