package cmd

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetFlags clears flag variables and the Changed marks cobra keeps
// between Execute calls on the shared root command.
func resetFlags() {
	cfgFile, baseDir, logLevel, logFormat = "", "", "", ""
	runRoot, runYes, runOverwrite, runKeepRegistry, runForce = "", false, false, false, false
	scanRoot, scanOverwrite, scanForce = "", false, false
	initForce = false

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "    ")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// writeConfig writes a config.json into dir that stages inside dir and
// logs only errors.
func writeConfig(t *testing.T, dir string, extra map[string]interface{}) {
	t.Helper()
	cfg := map[string]interface{}{
		"hostname":     "localhost",
		"username":     "SYSDBA",
		"password":     "masterkey",
		"staging_base": filepath.Join(dir, "staging"),
		"logging":      map[string]interface{}{"level": "error"},
	}
	for k, v := range extra {
		cfg[k] = v
	}
	writeJSON(t, filepath.Join(dir, "config.json"), cfg)
}

func createSQLiteDB(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE T (ID INTEGER, NAME TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO T VALUES (1, 'a')`)
	require.NoError(t, err)
}
