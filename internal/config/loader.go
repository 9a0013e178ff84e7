package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified JSON file path.
// It performs environment variable substitution on credentials and paths.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// Exists reports whether a config file is present at path.
func Exists(configPath string) bool {
	info, err := os.Stat(configPath)
	return err == nil && info.Mode().IsRegular()
}

// SaveCredentials writes a new config file holding only the connection identity.
// Every other setting keeps its default until edited by hand.
func SaveCredentials(configPath, hostname, username, password string) error {
	v := viper.New()
	v.SetConfigType("json")
	v.Set("hostname", hostname)
	v.Set("username", username)
	v.Set("password", password)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func substituteEnvVars(cfg *Config) {
	cfg.Hostname = expandEnvVar(cfg.Hostname)
	cfg.Username = expandEnvVar(cfg.Username)
	cfg.Password = expandEnvVar(cfg.Password)

	cfg.ReportsDir = expandEnvVar(cfg.ReportsDir)
	cfg.StagingBase = expandEnvVar(cfg.StagingBase)
	cfg.Files.Query = expandEnvVar(cfg.Files.Query)
	cfg.Files.Registry = expandEnvVar(cfg.Files.Registry)
	cfg.Files.ErrorLog = expandEnvVar(cfg.Files.ErrorLog)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}
