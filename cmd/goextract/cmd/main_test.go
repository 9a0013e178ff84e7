package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecute(t *testing.T) {
	// Execute() calls os.Exit(1) on error, so only its presence is checked.
	assert.NotNil(t, Execute)
}

func TestVersionVariables(t *testing.T) {
	assert.NotEmpty(t, Version, "Version should not be empty")
	assert.NotEmpty(t, Commit, "Commit should not be empty")
}

func TestCLIFlagsVariables(t *testing.T) {
	// config defaults to config.json in the base directory, resolved lazily
	assert.Equal(t, "", cfgFile)
	assert.Equal(t, "", baseDir)
	assert.Equal(t, "", logLevel)
	assert.Equal(t, "", logFormat)
}
