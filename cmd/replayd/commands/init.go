package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replayd/replayd/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a fully-defaulted configuration file to the default location
($XDG_CONFIG_HOME/replayd/config.yaml) or to the path given with --config.

Examples:
  # Initialize config at the default location
  replayd init

  # Initialize config at a custom path
  replayd init --config /etc/replayd/config.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Printf("  2. Start the proxy with: replayd start --config %s\n", path)
	return nil
}
