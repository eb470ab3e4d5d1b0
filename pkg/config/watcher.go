package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/replayd/replayd/internal/logger"
)

// debounceInterval coalesces editor write bursts into one reload.
const debounceInterval = 250 * time.Millisecond

// WatchLogging watches the config file and re-applies the logging section
// when it changes, so operators can flip the log level on a running proxy
// without a restart. Only logging is hot-reloaded; everything else requires
// a restart.
//
// The watch runs until the context is cancelled. A missing or unreadable
// file on reload is logged and skipped, never fatal.
func WatchLogging(ctx context.Context, configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config watcher requires an explicit config path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save,
	// which drops a direct file watch.
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory %q: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		target := filepath.Clean(configPath)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceInterval, func() {
					reloadLogging(configPath)
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", logger.KeyError, err)
			}
		}
	}()

	logger.Debug("watching config file for logging changes", logger.KeyPath, configPath)
	return nil
}

// reloadLogging re-reads the file and applies just the logging section.
func reloadLogging(configPath string) {
	// Load falls back to defaults for a missing file; skip instead of
	// resetting the running logger.
	if _, err := os.Stat(configPath); err != nil {
		logger.Warn("config reload failed; keeping current logging settings",
			logger.KeyPath, configPath,
			logger.KeyError, err)
		return
	}

	cfg, err := Load(configPath)
	if err != nil {
		logger.Warn("config reload failed; keeping current logging settings",
			logger.KeyPath, configPath,
			logger.KeyError, err)
		return
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	logger.Info("logging configuration reloaded",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format)
}
