// Package report places finished workbooks into the dated report tree.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dbsmedya/goextract/internal/types"
)

const (
	// DateLayout names the per-run report directory (DD-MM-YYYY).
	DateLayout = "02-01-2006"
	// TimeLayout is appended to each workbook name (HH-MM-SS).
	TimeLayout = "15-04-05"
	// Extension of every placed workbook.
	Extension = ".xlsx"
)

// PlacementError reports a failure to move a workbook into the report tree.
type PlacementError struct {
	Path string
	Err  error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("failed to place report %s: %v", e.Path, e.Err)
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}

// Root returns the dated report directory for a run started at now.
func Root(base string, now time.Time) string {
	return filepath.Join(base, now.Format(DateLayout))
}

// FileName returns "<name>_<HH-MM-SS>.xlsx".
func FileName(name string, now time.Time) string {
	return name + "_" + now.Format(TimeLayout) + Extension
}

// RelativeDir returns the directory of databasePath relative to scanRoot.
// Databases outside scanRoot map to "." so their reports land directly in
// the report root.
func RelativeDir(scanRoot, databasePath string) string {
	if scanRoot == "" {
		return "."
	}
	rel, err := filepath.Rel(filepath.Clean(scanRoot), filepath.Dir(filepath.Clean(databasePath)))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "."
	}
	return rel
}

// Placer moves workbooks from staging into the report tree.
type Placer struct {
	now func() time.Time
}

// NewPlacer creates a Placer that names files with the wall clock.
func NewPlacer() *Placer {
	return &Placer{now: time.Now}
}

// WithClock replaces the clock used for file names.
func (p *Placer) WithClock(now func() time.Time) *Placer {
	p.now = now
	return p
}

// Place moves artifact to reportRoot/<relative dir>/<name>_<HH-MM-SS>.xlsx
// and returns the final path. The move is the last step, so a file that
// exists under reportRoot is always complete. An existing file is never
// overwritten; a numeric suffix is added instead.
func (p *Placer) Place(desc types.DatabaseDescriptor, artifact, scanRoot, reportRoot string) (string, error) {
	finalDir := filepath.Join(reportRoot, RelativeDir(scanRoot, desc.DatabasePath))
	if err := os.MkdirAll(finalDir, 0755); err != nil {
		return "", &PlacementError{Path: finalDir, Err: fmt.Errorf("failed to create report directory: %w", err)}
	}

	target, err := uniquePath(filepath.Join(finalDir, FileName(desc.BaseName(), p.now())))
	if err != nil {
		return "", &PlacementError{Path: finalDir, Err: err}
	}

	if err := move(artifact, target); err != nil {
		return "", &PlacementError{Path: target, Err: err}
	}
	return target, nil
}

// uniquePath returns path, or path with "_2", "_3", ... before the
// extension when a file of that name already exists.
func uniquePath(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidate := path
	for n := 2; ; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		candidate = stem + "_" + strconv.Itoa(n) + ext
	}
}

// move renames src to dst, copying across filesystems when rename cannot.
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	return copyAcross(src, dst)
}

// copyAcross copies src into a temp file beside dst, renames it into place
// and removes src.
func copyAcross(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".placing-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	if err = os.Rename(tmpName, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
