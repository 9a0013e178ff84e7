package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/goextract/internal/config"
	"github.com/dbsmedya/goextract/internal/database"
	"github.com/dbsmedya/goextract/internal/extractor"
	"github.com/dbsmedya/goextract/internal/prompt"
)

var (
	runRoot         string
	runYes          bool
	runOverwrite    bool
	runKeepRegistry bool
	runForce        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan a folder and export query results for every database",
	Long: `Run performs a full extraction batch:
  1. Scan the folder for database files (recursively)
  2. Save the database list to the registry, or reuse the existing one
  3. Ask for confirmation, then for every database:
     copy it to staging, run the query on the copy, save an .xlsx workbook
     and move it to reports/<DD-MM-YYYY>/<same subfolder>/
  4. Print a summary; failures are written to the error log

A missing config file is created interactively, a missing query file is
created with a placeholder query.

Example:
  goextract run
  goextract run --root /data/fleet --yes --overwrite`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runRoot, "root", "r", "",
		"Folder to scan for database files (prompted when empty)")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false,
		"Do not ask for confirmation before processing")
	runCmd.Flags().BoolVar(&runOverwrite, "overwrite", false,
		"Replace an existing registry with the fresh scan")
	runCmd.Flags().BoolVar(&runKeepRegistry, "keep-registry", false,
		"Reuse an existing registry and ignore the fresh scan")
	runCmd.MarkFlagsMutuallyExclusive("overwrite", "keep-registry")
	runCmd.Flags().BoolVar(&runForce, "force", false,
		"Remove a run lock left behind by a killed run (use with caution)")

	rootCmd.AddCommand(runCmd)
}

// cliDecider answers the run's questions from flags, falling back to the
// prompter. --yes answers both questions with yes unless --keep-registry
// is given.
type cliDecider struct {
	prompter  *prompt.Prompter
	assumeYes bool
	overwrite bool
	keep      bool
}

func (d cliDecider) OverwriteRegistry(path string) bool {
	switch {
	case d.overwrite:
		return true
	case d.keep:
		return false
	case d.assumeYes:
		return true
	}
	return d.prompter.YesNo(fmt.Sprintf("File %s already exists. Overwrite it?", path))
}

func (d cliDecider) ProceedWithBatch(count int) bool {
	if d.assumeYes {
		return true
	}
	return d.prompter.YesNo(fmt.Sprintf("Run the query on %d database(s)?", count))
}

func runRun(cmd *cobra.Command, args []string) error {
	cmd.Println(platformBanner())
	p := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())

	configFile := GetConfigFile()
	if !config.Exists(configFile) {
		cmd.Println("Configuration file not found.")
		if err := createConfig(cmd, p, configFile); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	runID := uuid.NewString()
	runLock, err := acquireRunLock(runID, runForce)
	if err != nil {
		return err
	}
	defer func() {
		if err := runLock.Release(); err != nil {
			log.Warnw("Failed to release run lock", "path", runLock.Path(), "error", err)
		}
	}()
	if runForce {
		log.Warnw("Run lock forced", "path", runLock.Path())
	}

	query, created, err := config.LoadQuery(cfg.Files.Query)
	if err != nil {
		return fmt.Errorf("failed to load query: %w", err)
	}
	if created {
		cmd.Printf("Query file created: %s\n", cfg.Files.Query)
	}

	root := runRoot
	if root == "" {
		root, err = p.Required(fmt.Sprintf("Enter the folder to search for *%s files: ", cfg.Extension))
		if err != nil {
			return fmt.Errorf("failed to read folder: %w", err)
		}
	}

	client, err := database.NewSQLClient(cfg.Driver)
	if err != nil {
		return err
	}

	orch, err := extractor.NewOrchestrator(cfg, query, client)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	orch.WithLogger(log).WithOutput(cmd.OutOrStdout())

	ctx, stop := database.NotifyContext(context.Background(), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - finishing current database...", "signal", sig.String())
	})
	defer stop()

	log.Infow("Starting extraction run",
		"run_id", runID,
		"config", configFile,
		"root", root,
		"driver", client.Driver(),
	)

	result, err := orch.Run(ctx, extractor.RunOptions{
		ScanRoot: root,
		RunID:    runID,
		Decider: cliDecider{
			prompter:  p,
			assumeYes: runYes,
			overwrite: runOverwrite,
			keep:      runKeepRegistry,
		},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			cmd.Println()
			_ = result.WriteSummary(cmd.OutOrStdout())
			log.Warn("Extraction run cancelled by user")
			return nil
		}
		if extractor.IsFatal(err) {
			return fmt.Errorf("run aborted: %w", err)
		}
		return fmt.Errorf("run failed: %w", err)
	}

	if result.Phase != extractor.PhaseDone {
		return nil
	}

	cmd.Printf("\n=== Extraction Complete ===\n")
	cmd.Printf("Run ID: %s\n", result.RunID)
	cmd.Printf("Reports: %s\n\n", result.ReportRoot)
	if err := result.WriteSummary(cmd.OutOrStdout()); err != nil {
		return err
	}

	// Per-database failures are in the error log; the batch itself succeeded.
	if result.Failed > 0 {
		log.Warnw("Extraction completed with failures",
			"failed", result.Failed,
			"error_log", result.ErrorLog,
		)
	}
	return nil
}
