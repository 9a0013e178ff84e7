package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/goextract/internal/config"
	"github.com/dbsmedya/goextract/internal/registry"
	"github.com/dbsmedya/goextract/internal/scanner"
)

var (
	scanRoot      string
	scanOverwrite bool
	scanForce     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a folder and write the database registry",
	Long: `Scan finds database files under a folder and saves them to the registry
(database.json) without running any query. An existing registry is kept
unless --overwrite is given.

Example:
  goextract scan --root /data/fleet --overwrite`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanRoot, "root", "r", "",
		"Folder to scan for database files (required)")
	scanCmd.MarkFlagRequired("root")

	scanCmd.Flags().BoolVar(&scanOverwrite, "overwrite", false,
		"Replace an existing registry with the fresh scan")
	scanCmd.Flags().BoolVar(&scanForce, "force", false,
		"Remove a run lock left behind by a killed run (use with caution)")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runLock, err := newRunLock(uuid.NewString(), scanForce)
	if err != nil {
		return err
	}

	held := false
	err = runLock.WithLock(func() error {
		held = true
		return scanRegistry(cmd, cfg)
	})
	if err != nil && !held {
		return lockError(runLock, err)
	}
	return err
}

func scanRegistry(cmd *cobra.Command, cfg *config.Config) error {
	paths, err := scanner.ScanAll(scanRoot, cfg.Extension)
	if err != nil {
		return err
	}
	cmd.Printf("Found %d database file(s) under %s\n", len(paths), scanRoot)

	fresh := registry.Build(paths, cfg.Credentials())
	descriptors, outcome, err := registry.Resolve(cfg.Files.Registry, fresh, func(string) bool {
		return scanOverwrite
	})
	if err != nil {
		return fmt.Errorf("failed to update registry: %w", err)
	}

	switch outcome {
	case registry.OutcomeCreated:
		cmd.Printf("Registry created: %s (%d databases)\n", cfg.Files.Registry, len(descriptors))
	case registry.OutcomeOverwritten:
		cmd.Printf("Registry overwritten: %s (%d databases)\n", cfg.Files.Registry, len(descriptors))
	case registry.OutcomeKept:
		cmd.Printf("Registry %s already exists and was kept (%d databases); use --overwrite to replace it\n",
			cfg.Files.Registry, len(descriptors))
	}
	return nil
}
