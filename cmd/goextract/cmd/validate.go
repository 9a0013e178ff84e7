package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goextract/internal/config"
	"github.com/dbsmedya/goextract/internal/database"
	"github.com/dbsmedya/goextract/internal/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration, query and registry files",
	Long: `Validate checks the configuration file and the files a run depends on
without touching any database.

Checks performed:
  - Configuration syntax and required fields
  - Database driver support
  - Query file presence and content
  - Registry file format (when present)

Example:
  goextract validate --config config.json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", configFile)

	cfg, err := loadConfig()
	if err != nil {
		cmd.Printf("❌ %v\n", err)
		return fmt.Errorf("validation failed")
	}
	cmd.Printf("✅ Configuration valid (host %s, driver %s, extension %s)\n",
		cfg.Hostname, cfg.Driver, cfg.Extension)

	hasErrors := false

	if _, err := database.NewSQLClient(cfg.Driver); err != nil {
		cmd.Printf("❌ Driver: %v\n", err)
		hasErrors = true
	}

	if _, err := os.Stat(cfg.Files.Query); os.IsNotExist(err) {
		cmd.Printf("⚠️  Query file %s not found; it will be created with %q on the next run\n",
			cfg.Files.Query, config.DefaultQuery)
	} else if query, _, err := config.LoadQuery(cfg.Files.Query); err != nil {
		cmd.Printf("❌ Query: %v\n", err)
		hasErrors = true
	} else {
		cmd.Printf("✅ Query file %s (%d characters)\n", cfg.Files.Query, len(query))
	}

	if registry.Exists(cfg.Files.Registry) {
		descriptors, err := registry.Load(cfg.Files.Registry)
		if err != nil {
			cmd.Printf("❌ Registry: %v\n", err)
			hasErrors = true
		} else {
			cmd.Printf("✅ Registry %s (%d databases)\n", cfg.Files.Registry, len(descriptors))
		}
	} else {
		cmd.Printf("⚠️  Registry %s not found; it will be created on the next scan\n", cfg.Files.Registry)
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	cmd.Println("=== Validation Complete ===")
	return nil
}
