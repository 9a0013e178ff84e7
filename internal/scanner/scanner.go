// Package scanner discovers database files under a directory tree.
package scanner

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// ScanError is returned when the scan root is unusable or the walk fails.
// It is fatal for a run: no registry is built from a failed scan.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Scan validates root and returns a lazy sequence of regular files below it
// whose extension matches ext case-insensitively. Yielded paths are absolute.
// A symlinked root is followed; symlinks below it and directories are never
// yielded. The sequence walks the tree once per iteration; callers should
// treat it as single-use. Order follows the filesystem walk.
func Scan(root, ext string) (iter.Seq2[string, error], error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Root: root, Err: fmt.Errorf("not a directory")}
	}
	if root, err = ResolveRoot(root); err != nil {
		return nil, err
	}

	seq := func(yield func(string, error) bool) {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			// DirEntry type bits come from Lstat, so symlinks are not regular.
			if !d.Type().IsRegular() || !MatchExtension(path, ext) {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if walkErr != nil {
			yield("", &ScanError{Root: root, Err: walkErr})
		}
	}
	return seq, nil
}

// ResolveRoot makes root absolute and follows a symlinked root, so the walk
// descends into it and yielded paths stay valid from any working directory.
func ResolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &ScanError{Root: root, Err: err}
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return "", &ScanError{Root: root, Err: err}
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return abs, nil
	}
	// WalkDir does not descend into a symlinked root.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &ScanError{Root: root, Err: err}
	}
	return resolved, nil
}

// MatchExtension reports whether path ends in ext, ignoring case.
func MatchExtension(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

// Collect drains seq into a slice, stopping at the first error.
// A partial result is never returned alongside an error.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var paths []string
	for path, err := range seq {
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ScanAll is Scan followed by Collect.
func ScanAll(root, ext string) ([]string, error) {
	seq, err := Scan(root, ext)
	if err != nil {
		return nil, err
	}
	return Collect(seq)
}
