package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateConnection()...)
	errors = append(errors, c.validateFiles()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateConnection() ValidationErrors {
	var errors ValidationErrors

	if c.Hostname == "" {
		errors = append(errors, ValidationError{
			Field:   "hostname",
			Message: "hostname is required",
		})
	}

	if c.Username == "" {
		errors = append(errors, ValidationError{
			Field:   "username",
			Message: "username is required",
		})
	}

	validDrivers := map[string]bool{DriverFirebird: true, DriverSQLite: true}
	if !validDrivers[c.Driver] {
		errors = append(errors, ValidationError{
			Field:   "driver",
			Message: "driver must be 'firebird' or 'sqlite'",
		})
	}

	return errors
}

func (c *Config) validateFiles() ValidationErrors {
	var errors ValidationErrors

	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		errors = append(errors, ValidationError{
			Field:   "extension",
			Message: "extension must start with '.' and name a suffix, e.g. '.fdb'",
		})
	}

	validVerify := map[string]bool{"size": true, "sha256": true, "skip": true, "": true}
	if !validVerify[c.Verify] {
		errors = append(errors, ValidationError{
			Field:   "verify",
			Message: "verify must be 'size', 'sha256', or 'skip'",
		})
	}

	if c.VerifyChunk < 0 {
		errors = append(errors, ValidationError{
			Field:   "verify_chunk_size",
			Message: "verify_chunk_size must not be negative",
		})
	}

	if c.ReportsDir == "" {
		errors = append(errors, ValidationError{
			Field:   "reports_dir",
			Message: "reports_dir is required",
		})
	}

	required := []struct {
		field string
		value string
	}{
		{"files.query", c.Files.Query},
		{"files.registry", c.Files.Registry},
		{"files.error_log", c.Files.ErrorLog},
	}
	for _, r := range required {
		if r.value == "" {
			errors = append(errors, ValidationError{
				Field:   r.field,
				Message: "path is required",
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
