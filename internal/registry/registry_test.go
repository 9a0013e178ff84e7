package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goextract/internal/scanner"
	"github.com/dbsmedya/goextract/internal/types"
)

var testCreds = types.Credentials{Hostname: "localhost", Username: "SYSDBA", Password: "masterkey"}

func TestBuild(t *testing.T) {
	paths := []string{"/fleet/A/x.fdb", "/fleet/B/C/y.fdb"}

	got := Build(paths, testCreds)

	require.Len(t, got, 2)
	for i, d := range got {
		assert.Equal(t, paths[i], d.DatabasePath)
		assert.Equal(t, "localhost", d.Hostname)
		assert.Equal(t, "SYSDBA", d.Username)
		assert.Equal(t, "masterkey", d.Password)
	}
}

func TestBuild_Empty(t *testing.T) {
	got := Build(nil, testCreds)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	descriptors := Build([]string{
		"/fleet/A/x.fdb",
		"/fleet/Склад/y.fdb",
		"/fleet/B/C/z.FDB",
	}, testCreds)

	require.NoError(t, Persist(descriptors, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, descriptors, loaded)
}

func TestPersist_RelativeScanRootStoresAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fleet", "A"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fleet", "A", "x.fdb"), []byte("x"), 0644))
	t.Chdir(dir)

	paths, err := scanner.ScanAll("fleet", ".fdb")
	require.NoError(t, err)
	path := filepath.Join(dir, "database.json")
	require.NoError(t, Persist(Build(paths, testCreds), path))

	// A later run from another working directory still finds the file
	t.Chdir(t.TempDir())
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, filepath.IsAbs(loaded[0].DatabasePath), "got %s", loaded[0].DatabasePath)
	assert.FileExists(t, loaded[0].DatabasePath)
}

func TestPersist_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	require.NoError(t, Persist(Build([]string{"/fleet/Склад/x.fdb"}, testCreds), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "[\n    {"), "expected pretty-printed array, got %q", content)
	assert.Contains(t, content, `"database_path": "/fleet/Склад/x.fdb"`)
	assert.Contains(t, content, `"hostname": "localhost"`)
	assert.Contains(t, content, `"username": "SYSDBA"`)
	assert.Contains(t, content, `"password": "masterkey"`)
}

func TestPersist_ReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "database.json")

	require.NoError(t, Persist(Build([]string{"/a.fdb", "/b.fdb", "/c.fdb"}, testCreds), path))
	require.NoError(t, Persist(Build([]string{"/d.fdb"}, testCreds), path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "/d.fdb", loaded[0].DatabasePath)

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPersist_EmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	require.NoError(t, Persist(nil, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated", `[{"hostname": "localhost", `},
		{"object instead of array", `{"hostname": "localhost"}`},
		{"null", `null`},
		{"empty file", ``},
		{"missing database_path", `[{"hostname": "localhost"}]`},
		{"wrong type", `[{"database_path": 5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "database.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)

			var corrupt *CorruptError
			require.True(t, errors.As(err, &corrupt), "expected CorruptError, got %v", err)
			assert.Equal(t, path, corrupt.Path)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	var corrupt *CorruptError
	assert.False(t, errors.As(err, &corrupt))
}

func TestResolve(t *testing.T) {
	fresh := Build([]string{"/fleet/new.fdb"}, testCreds)
	stale := Build([]string{"/fleet/old.fdb"}, testCreds)

	t.Run("no existing registry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "database.json")
		asked := false

		got, outcome, err := Resolve(path, fresh, func(string) bool { asked = true; return false })
		require.NoError(t, err)

		assert.False(t, asked, "must not ask when no registry exists")
		assert.Equal(t, OutcomeCreated, outcome)
		assert.Equal(t, fresh, got)
		assert.True(t, Exists(path))
	})

	t.Run("overwrite accepted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "database.json")
		require.NoError(t, Persist(stale, path))

		got, outcome, err := Resolve(path, fresh, func(string) bool { return true })
		require.NoError(t, err)

		assert.Equal(t, OutcomeOverwritten, outcome)
		assert.Equal(t, fresh, got)
		onDisk, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, fresh, onDisk)
	})

	t.Run("overwrite declined keeps existing without merge", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "database.json")
		require.NoError(t, Persist(stale, path))

		got, outcome, err := Resolve(path, fresh, func(string) bool { return false })
		require.NoError(t, err)

		assert.Equal(t, OutcomeKept, outcome)
		assert.Equal(t, stale, got)
	})

	t.Run("declined with corrupt registry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "database.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

		_, _, err := Resolve(path, fresh, nil)

		var corrupt *CorruptError
		assert.True(t, errors.As(err, &corrupt))
	})
}
