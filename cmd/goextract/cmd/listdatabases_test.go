package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goextract/internal/registry"
	"github.com/dbsmedya/goextract/internal/types"
)

func TestListDatabasesCommandStructure(t *testing.T) {
	assert.Equal(t, "list-databases", listDatabasesCmd.Use)
	assert.NotEmpty(t, listDatabasesCmd.Short)
	assert.Contains(t, listDatabasesCmd.Long, "goextract list-databases")
}

func TestListDatabasesCommand(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, nil)

	present := filepath.Join(dir, "fleet", "a.fdb")
	touchFile(t, present)
	gone := filepath.Join(dir, "fleet", "gone.fdb")

	creds := types.Credentials{Hostname: "localhost", Username: "SYSDBA", Password: "masterkey"}
	require.NoError(t, registry.Persist([]types.DatabaseDescriptor{
		types.NewDescriptor(present, creds),
		types.NewDescriptor(gone, creds),
	}, filepath.Join(dir, "database.json")))

	out, err := executeCommand(t, "", "list-databases", "--base-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "1. "+present)
	assert.Contains(t, out, "2. "+gone)
	assert.Contains(t, out, "present")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "Total: 2 database(s), 1 missing")
	assert.NotContains(t, out, "masterkey", "passwords are never listed")
}

func TestListDatabasesCommand_NoRegistry(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, nil)

	out, err := executeCommand(t, "", "list-databases", "--base-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No registry found")
}
