// Package staging copies database files into a private per-run directory
// so they can be queried without locking or mutating the originals.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dbsmedya/goextract/internal/types"
)

// UnavailableError is returned when the staging directory cannot be created.
// It is fatal for a run.
type UnavailableError struct {
	Base string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("staging directory unavailable under %s: %v", e.Base, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// CopyError is returned when a database file cannot be copied into staging.
type CopyError struct {
	Path string
	Err  error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("failed to stage %s: %v", e.Path, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// Manager owns one process-scoped staging directory.
// It is not safe for concurrent use; a run stages one database at a time.
type Manager struct {
	base string
	root string
}

// NewManager creates a manager that will stage under base.
func NewManager(base string) *Manager {
	return &Manager{base: base}
}

// Root returns the staging directory, or "" before Prepare.
func (m *Manager) Root() string {
	return m.root
}

// Prepare creates base (with parents) and a unique run directory inside it.
// Calling Prepare again returns the existing directory.
func (m *Manager) Prepare() (string, error) {
	if m.root != "" {
		return m.root, nil
	}
	if m.base == "" {
		return "", &UnavailableError{Base: m.base, Err: errors.New("no staging base configured")}
	}
	if err := os.MkdirAll(m.base, 0700); err != nil {
		return "", &UnavailableError{Base: m.base, Err: err}
	}
	root, err := os.MkdirTemp(m.base, "run-*")
	if err != nil {
		return "", &UnavailableError{Base: m.base, Err: err}
	}
	m.root = root
	return root, nil
}

// Stage copies the descriptor's database file byte-for-byte into the staging
// directory under its original base name.
func (m *Manager) Stage(d types.DatabaseDescriptor) (types.StagedCopy, error) {
	if m.root == "" {
		return types.StagedCopy{}, &CopyError{Path: d.DatabasePath, Err: errors.New("staging directory not prepared")}
	}

	dst := filepath.Join(m.root, filepath.Base(d.DatabasePath))
	if err := copyFile(d.DatabasePath, dst); err != nil {
		return types.StagedCopy{}, &CopyError{Path: d.DatabasePath, Err: err}
	}

	return types.StagedCopy{Descriptor: d, StagingPath: dst}, nil
}

// Unstage removes a single staged copy. A copy that is already gone is fine.
func (m *Manager) Unstage(c types.StagedCopy) error {
	if c.StagingPath == "" {
		return nil
	}
	if err := os.Remove(c.StagingPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove staged copy %s: %w", c.StagingPath, err)
	}
	return nil
}

// Release removes everything inside the staging directory and then the
// directory itself. It is idempotent: releasing an unprepared or already
// released manager returns nil.
func (m *Manager) Release() error {
	if m.root == "" {
		return nil
	}

	entries, err := os.ReadDir(m.root)
	if errors.Is(err, fs.ErrNotExist) {
		m.root = ""
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list staging directory: %w", err)
	}

	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(m.root, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	if err := os.Remove(m.root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to release staging directory %s: %w", m.root, errors.Join(errs...))
	}

	m.root = ""
	return nil
}

// copyFile copies src to dst and fsyncs it. A partial dst is removed on failure.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	return out.Close()
}
