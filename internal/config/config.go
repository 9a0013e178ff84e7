// Package config provides configuration structures and loading for GoExtract.
package config

import (
	"path/filepath"

	"github.com/dbsmedya/goextract/internal/types"
)

// Supported database drivers.
const (
	DriverFirebird = "firebird"
	DriverSQLite   = "sqlite"
)

// Default file names, resolved against the base directory.
const (
	DefaultConfigFile   = "config.json"
	DefaultQueryFile    = "query.sql"
	DefaultRegistryFile = "database.json"
	DefaultErrorLogFile = "errors.log"
	DefaultReportsDir   = "reports"
	DefaultQuery        = "SELECT * FROM table_name"
)

// Config represents the complete application configuration.
type Config struct {
	Hostname    string        `json:"hostname" mapstructure:"hostname"`
	Username    string        `json:"username" mapstructure:"username"`
	Password    string        `json:"password" mapstructure:"password"`
	Driver      string        `json:"driver" mapstructure:"driver"`       // firebird or sqlite
	Extension   string        `json:"extension" mapstructure:"extension"` // database file suffix, e.g. ".fdb"
	ReportsDir  string        `json:"reports_dir" mapstructure:"reports_dir"`
	StagingBase string        `json:"staging_base" mapstructure:"staging_base"`
	Verify      string        `json:"verify" mapstructure:"verify"` // staged copy check: size, sha256 or skip
	// VerifyChunk is the read size in bytes while hashing; 0 keeps the default.
	VerifyChunk int           `json:"verify_chunk_size" mapstructure:"verify_chunk_size"`
	Files       FilesConfig   `json:"files" mapstructure:"files"`
	Export      ExportConfig  `json:"export" mapstructure:"export"`
	Logging     LoggingConfig `json:"logging" mapstructure:"logging"`
}

// FilesConfig holds the locations of the files GoExtract reads and writes.
type FilesConfig struct {
	Query    string `json:"query" mapstructure:"query"`
	Registry string `json:"registry" mapstructure:"registry"`
	ErrorLog string `json:"error_log" mapstructure:"error_log"`
}

// ExportConfig represents workbook output settings.
type ExportConfig struct {
	Header bool `json:"header" mapstructure:"header"` // write column names as the first row
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // json or text
	Output string `json:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Driver:     DriverFirebird,
		Extension:  ".fdb",
		ReportsDir: DefaultReportsDir,
		Verify:     "size",
		Files: FilesConfig{
			Query:    DefaultQueryFile,
			Registry: DefaultRegistryFile,
			ErrorLog: DefaultErrorLogFile,
		},
		Export: ExportConfig{
			Header: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Credentials returns the shared connection identity as an immutable value.
func (c *Config) Credentials() types.Credentials {
	return types.Credentials{
		Hostname: c.Hostname,
		Username: c.Username,
		Password: c.Password,
	}
}

// ResolvePaths makes every relative file location absolute against baseDir.
// StagingBase is left untouched when empty; the caller decides its default.
func (c *Config) ResolvePaths(baseDir string) {
	c.ReportsDir = resolve(baseDir, c.ReportsDir)
	c.Files.Query = resolve(baseDir, c.Files.Query)
	c.Files.Registry = resolve(baseDir, c.Files.Registry)
	c.Files.ErrorLog = resolve(baseDir, c.Files.ErrorLog)
	if c.StagingBase != "" {
		c.StagingBase = resolve(baseDir, c.StagingBase)
	}
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
}
