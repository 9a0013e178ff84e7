package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goextract/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	baseDir   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "goextract",
	Short: "Batch query runner for embedded database fleets",
	Long: `A CLI tool that finds embedded database files (Firebird .fdb by default)
under a directory tree, runs one fixed SQL query against each of them and
saves every result set as an .xlsx workbook in a dated report tree.

Features:
  - Recursive discovery of database files by extension
  - Persistent database registry (database.json) reusable across runs
  - Queries run against private staged copies, never the originals
  - Reports mirror the scanned directory structure
  - One failing database never stops the batch (see errors.log)`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to configuration file (default: config.json in the base directory)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "",
		"Directory holding config, query, registry and reports (default: executable directory)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")
}

// GetBaseDir returns the directory that relative file locations resolve
// against: the --base-dir flag, else the executable's directory, else the
// working directory.
func GetBaseDir() string {
	if baseDir != "" {
		if abs, err := filepath.Abs(baseDir); err == nil {
			return abs
		}
		return baseDir
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(GetBaseDir(), config.DefaultConfigFile)
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
	}
}
