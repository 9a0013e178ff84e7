package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LoadQuery returns the SQL text stored at path. A missing file is created
// with DefaultQuery first; created reports whether that happened.
// The statement is passed through to the database verbatim.
func LoadQuery(path string) (query string, created bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, []byte(DefaultQuery), 0644); err != nil {
			return "", false, fmt.Errorf("failed to create query file: %w", err)
		}
		return DefaultQuery, true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read query file: %w", err)
	}

	query = strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	if query == "" {
		return "", false, fmt.Errorf("query file %s is empty", path)
	}
	return query, false, nil
}
