// Package lock prevents two runs from sharing one registry and report tree.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultFileName is the lock file created in the base directory.
const DefaultFileName = "goextract.lock"

// ErrLockHeld is returned when another run holds the lock.
var ErrLockHeld = errors.New("lock is held by another run")

// RunLock is an exclusive lock backed by a file created with O_EXCL. The file
// records the owner's PID, run ID and start time. A hard kill leaves the file
// behind; Break removes it.
type RunLock struct {
	path  string
	runID string
	held  bool
}

// New creates a lock at path for runID. Nothing is acquired yet.
func New(path, runID string) *RunLock {
	return &RunLock{path: path, runID: runID}
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}

// TryAcquire creates the lock file. It returns false without error when the
// file already exists.
func (l *RunLock) TryAcquire() (bool, error) {
	if l.held {
		return true, nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create lock file: %w", err)
	}

	_, werr := fmt.Fprintf(f, "pid=%d\nrun=%s\nstarted=%s\n",
		os.Getpid(), l.runID, time.Now().Format(time.RFC3339))
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(l.path)
		return false, fmt.Errorf("failed to write lock file: %w", err)
	}

	l.held = true
	return true, nil
}

// AcquireOrFail acquires the lock or returns ErrLockHeld describing the owner.
func (l *RunLock) AcquireOrFail() error {
	acquired, err := l.TryAcquire()
	if err != nil {
		return err
	}
	if !acquired {
		owner, _ := Owner(l.path)
		if owner != "" {
			return fmt.Errorf("%w: %s (%s)", ErrLockHeld, l.path, owner)
		}
		return fmt.Errorf("%w: %s", ErrLockHeld, l.path)
	}
	return nil
}

// Release removes the lock file if this instance holds it.
func (l *RunLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// WithLock runs fn while holding the lock. The lock is released even if fn
// panics.
func (l *RunLock) WithLock(fn func() error) (err error) {
	if err := l.AcquireOrFail(); err != nil {
		return err
	}
	defer func() {
		if releaseErr := l.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()
	return fn()
}

// Break removes a lock file left behind by a killed run.
func Break(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// Owner returns a one-line description of the lock holder, or "" when the
// file does not exist.
func Owner(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var parts []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " "), nil
}

// PID returns the process ID recorded in the lock file, or 0 if unknown.
func PID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "pid="); ok {
			if pid, err := strconv.Atoi(v); err == nil {
				return pid
			}
		}
	}
	return 0
}
