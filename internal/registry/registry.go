// Package registry builds, persists and loads the list of databases a run
// will process.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbsmedya/goextract/internal/types"
)

// CorruptError is returned when a persisted registry cannot be decoded.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("registry %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Outcome describes which list Resolve made active.
type Outcome string

const (
	OutcomeCreated     Outcome = "created"     // no registry existed; fresh scan persisted
	OutcomeOverwritten Outcome = "overwritten" // existing registry replaced by fresh scan
	OutcomeKept        Outcome = "kept"        // existing registry used; fresh scan discarded
)

// Build binds every path to a copy of the shared credentials, preserving order.
func Build(paths []string, creds types.Credentials) []types.DatabaseDescriptor {
	descriptors := make([]types.DatabaseDescriptor, 0, len(paths))
	for _, p := range paths {
		descriptors = append(descriptors, types.NewDescriptor(p, creds))
	}
	return descriptors
}

// Exists reports whether a registry file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Persist writes descriptors to path as a pretty-printed JSON array.
// The file is replaced atomically: a temp file in the same directory is
// written, synced and renamed over the target.
func Persist(descriptors []types.DatabaseDescriptor, path string) error {
	if descriptors == nil {
		descriptors = []types.DatabaseDescriptor{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(descriptors); err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp registry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close registry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

// Load reads a registry written by Persist. Descriptors are returned verbatim;
// the database files are not checked for existence.
func Load(path string) ([]types.DatabaseDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\ufeff")))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &CorruptError{Path: path, Err: fmt.Errorf("expected a JSON array")}
	}

	var descriptors []types.DatabaseDescriptor
	if err := json.Unmarshal(trimmed, &descriptors); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}

	for i, d := range descriptors {
		if d.DatabasePath == "" {
			return nil, &CorruptError{Path: path, Err: fmt.Errorf("entry %d has no database_path", i)}
		}
	}
	return descriptors, nil
}

// Resolve picks the active registry for a run. Without an existing file the
// fresh list is persisted. With one, overwrite is consulted: true replaces it
// with the fresh list, false loads the file and discards the fresh list.
// The two lists are never merged.
func Resolve(path string, fresh []types.DatabaseDescriptor, overwrite func(path string) bool) ([]types.DatabaseDescriptor, Outcome, error) {
	if !Exists(path) {
		if err := Persist(fresh, path); err != nil {
			return nil, "", err
		}
		return fresh, OutcomeCreated, nil
	}

	if overwrite != nil && overwrite(path) {
		if err := Persist(fresh, path); err != nil {
			return nil, "", err
		}
		return fresh, OutcomeOverwritten, nil
	}

	existing, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return existing, OutcomeKept, nil
}
