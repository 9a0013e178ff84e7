package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goextract/internal/config"
	"github.com/dbsmedya/goextract/internal/prompt"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file interactively",
	Long: `Init asks for the connection identity shared by every database in the
fleet (host name, user name and password) and writes it to the config file.
All other settings keep their defaults and can be edited by hand later.

Example:
  goextract init
  goextract init --config /etc/goextract/config.json --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Overwrite an existing configuration file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()
	if config.Exists(configFile) && !initForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", configFile)
	}

	p := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
	return createConfig(cmd, p, configFile)
}

// createConfig prompts for the credentials and writes them to configFile.
func createConfig(cmd *cobra.Command, p *prompt.Prompter, configFile string) error {
	hostname, err := p.Required("Enter host name: ")
	if err != nil {
		return fmt.Errorf("failed to read host name: %w", err)
	}
	username, err := p.Required("Enter user name: ")
	if err != nil {
		return fmt.Errorf("failed to read user name: %w", err)
	}
	password, err := p.Password("Enter password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := config.SaveCredentials(configFile, hostname, username, password); err != nil {
		return err
	}
	cmd.Printf("Configuration file created: %s\n", configFile)
	return nil
}
