// Command scrollkeeper attaches the scroll restoration keeper to a live
// page for diagnosis: it launches (or connects to) Chrome, opens the URL,
// installs the hooks and logs every restoration decision until interrupted.
//
// Usage:
//
//	scrollkeeper -url https://example.com               # launch local Chrome
//	scrollkeeper -url https://example.com -config sk.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/scrollkeeper"
)

func main() {
	pageURL := flag.String("url", "", "page to attach to")
	configPath := flag.String("config", "", "path to scrollkeeper.yaml config file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *pageURL, *configPath); err != nil {
		logger.Error("scrollkeeper: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, pageURL, configPath string) error {
	if pageURL == "" {
		fmt.Fprintln(os.Stderr, "usage: scrollkeeper -url <url> [-config <file>]")
		os.Exit(1)
	}

	var cfg *scrollkeeper.Config
	if configPath != "" {
		loaded, err := scrollkeeper.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = &scrollkeeper.Config{DebugLogging: logger.Enabled(ctx, slog.LevelDebug)}
	}

	sess := scrollkeeper.NewSession(cfg, logger)
	defer sess.Stop()

	if err := sess.Start(ctx, pageURL); err != nil {
		if !errors.Is(err, scrollkeeper.ErrUnsupported) {
			return err
		}
		// Hard environment precondition, not fatal: stay attached, do nothing.
		logger.Warn("scrollkeeper: page has no restoration mode, idling")
	}

	<-ctx.Done()
	return nil
}
