package cmd

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/goextract/internal/registry"
)

var listDatabasesCmd = &cobra.Command{
	Use:   "list-databases",
	Short: "List all databases in the registry",
	Long: `List-databases displays every database stored in the registry
(database.json) and whether its file is still present.

Example:
  goextract list-databases --base-dir /opt/goextract`,
	RunE: runListDatabases,
}

func init() {
	rootCmd.AddCommand(listDatabasesCmd)
}

func runListDatabases(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !registry.Exists(cfg.Files.Registry) {
		cmd.Printf("No registry found at %s (run 'goextract scan' first)\n", cfg.Files.Registry)
		return nil
	}

	descriptors, err := registry.Load(cfg.Files.Registry)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if len(descriptors) == 0 {
		cmd.Printf("Registry %s is empty\n", cfg.Files.Registry)
		return nil
	}

	cmd.Printf("Databases in %s:\n\n", cfg.Files.Registry)

	missing := 0
	for i, d := range descriptors {
		status := color.Green.Sprint("present")
		if info, err := os.Stat(d.DatabasePath); err != nil || !info.Mode().IsRegular() {
			status = color.Red.Sprint("missing")
			missing++
		}
		cmd.Printf("%d. %s [%s]\n", i+1, d.DatabasePath, status)
		cmd.Printf("   Host: %s  User: %s\n", d.Hostname, d.Username)
	}

	cmd.Printf("\nTotal: %d database(s), %d missing\n", len(descriptors), missing)
	return nil
}
