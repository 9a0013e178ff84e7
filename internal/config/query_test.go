package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadQuery_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.sql")

	query, created, err := LoadQuery(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected query file to be created")
	}
	if query != DefaultQuery {
		t.Errorf("expected default query, got %q", query)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("query file not written: %v", err)
	}
	if string(data) != DefaultQuery {
		t.Errorf("unexpected file content %q", string(data))
	}

	// Second load reads the existing file
	_, created, err = LoadQuery(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("existing query file must not be recreated")
	}
}

func TestLoadQuery_Existing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.sql")
	content := "\ufeffSELECT ID, NAME FROM CLIENTS\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write query: %v", err)
	}

	query, created, err := LoadQuery(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected existing file to be used")
	}
	if query != "SELECT ID, NAME FROM CLIENTS" {
		t.Errorf("unexpected query %q", query)
	}
}

func TestLoadQuery_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.sql")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("failed to write query: %v", err)
	}

	if _, _, err := LoadQuery(path); err == nil {
		t.Error("expected error for empty query file")
	}
}
