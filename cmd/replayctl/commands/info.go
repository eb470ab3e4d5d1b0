package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/replayd/replayd/internal/cli/output"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show proxy version and session count",
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := newControlClient(serverURL).info()
		if err != nil {
			return err
		}

		table := output.NewTableData("VERSION", "SESSIONS")
		table.AddRow(info.Version, itoa(info.Sessions))
		return output.PrintTable(os.Stdout, table)
	},
}
