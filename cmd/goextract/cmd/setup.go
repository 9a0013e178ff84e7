package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbsmedya/goextract/internal/config"
	"github.com/dbsmedya/goextract/internal/lock"
	"github.com/dbsmedya/goextract/internal/logger"
)

// loadConfig loads the config file, applies CLI overrides, resolves
// relative paths against the base directory and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat)
	cfg.ResolvePaths(GetBaseDir())
	if cfg.StagingBase == "" {
		cfg.StagingBase = defaultStagingBase()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", GetConfigFile(), err)
	}
	return cfg, nil
}

// defaultStagingBase is ~/.goextract/staging, or a temp directory when
// there is no home directory.
func defaultStagingBase() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".goextract", "staging")
	}
	return filepath.Join(os.TempDir(), "goextract", "staging")
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// newRunLock returns the base directory lock, not yet acquired. With force a
// lock left by a killed run is removed first.
func newRunLock(runID string, force bool) (*lock.RunLock, error) {
	path := filepath.Join(GetBaseDir(), lock.DefaultFileName)
	if force {
		if err := lock.Break(path); err != nil {
			return nil, err
		}
	}
	return lock.New(path, runID), nil
}

// acquireRunLock takes the base directory lock for the rest of the command.
func acquireRunLock(runID string, force bool) (*lock.RunLock, error) {
	l, err := newRunLock(runID, force)
	if err != nil {
		return nil, err
	}
	if err := l.AcquireOrFail(); err != nil {
		return nil, lockError(l, err)
	}
	return l, nil
}

// lockError explains a held lock and how to recover from a stale one.
func lockError(l *lock.RunLock, err error) error {
	if !errors.Is(err, lock.ErrLockHeld) {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if pid := lock.PID(l.Path()); pid > 0 {
		return fmt.Errorf("another goextract run (pid %d) is active (use --force if it was killed): %w", pid, err)
	}
	return fmt.Errorf("another goextract run is active (use --force if it was killed): %w", err)
}
