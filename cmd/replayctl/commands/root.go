// Package commands implements the replayctl CLI, a client for the replayd
// control plane.
package commands

import "github.com/spf13/cobra"

// Version information injected at build time.
var Version = "dev"

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "replayctl",
	Short: "replayctl - manage a running replayd proxy",
	Long: `replayctl talks to the control plane of a running replayd proxy to
inspect and manage record/replay sessions.

Examples:
  replayctl info
  replayctl sessions list
  replayctl sessions create my-test
  replayctl sessions set-mode my-test replay
  replayctl sessions interactions my-test
  replayctl sessions delete my-test`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://127.0.0.1:8080", "replayd base URL")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(newSessionsCommand())

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
