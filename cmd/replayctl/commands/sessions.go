package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/replayd/replayd/internal/cli/output"
	"github.com/replayd/replayd/internal/cli/prompt"
)

var deleteForce bool

func itoa(n int) string {
	return strconv.Itoa(n)
}

// newSessionsCommand builds the "sessions" command tree.
func newSessionsCommand() *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage record/replay sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newControlClient(serverURL)
			ids, err := client.listSessions()
			if err != nil {
				return err
			}

			table := output.NewTableData("SESSION", "MODE", "TARGET")
			for _, id := range ids {
				cfg, err := client.getSession(id)
				if err != nil {
					// The session may have been deleted between calls.
					table.AddRow(id, "-", "-")
					continue
				}
				table.AddRow(id, cfg.Mode, cfg.TargetURL)
			}
			return output.PrintTable(os.Stdout, table)
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newControlClient(serverURL).createSession(args[0]); err != nil {
				return err
			}
			fmt.Printf("Session %s created\n", args[0])
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its recordings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := prompt.ConfirmWithForce(
				fmt.Sprintf("Delete session %q and all its recordings?", args[0]), deleteForce)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted")
				return nil
			}

			if err := newControlClient(serverURL).deleteSession(args[0]); err != nil {
				return err
			}
			fmt.Printf("Session %s deleted\n", args[0])
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newControlClient(serverURL).getSession(args[0])
			if err != nil {
				return err
			}

			table := output.NewTableData("SESSION", "MODE", "TARGET")
			table.AddRow(args[0], cfg.Mode, cfg.TargetURL)
			return output.PrintTable(os.Stdout, table)
		},
	}

	setModeCmd := &cobra.Command{
		Use:   "set-mode <id> <record|replay|passthrough>",
		Short: "Switch a session's mode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newControlClient(serverURL).updateSession(args[0], map[string]any{"mode": args[1]}); err != nil {
				return err
			}
			fmt.Printf("Session %s switched to %s\n", args[0], args[1])
			return nil
		},
	}

	setTargetCmd := &cobra.Command{
		Use:   "set-target <id> <url>",
		Short: "Set a session's upstream target URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newControlClient(serverURL).updateSession(args[0], map[string]any{"target_url": args[1]}); err != nil {
				return err
			}
			fmt.Printf("Session %s target set to %s\n", args[0], args[1])
			return nil
		},
	}

	interactionsCmd := &cobra.Command{
		Use:   "interactions <id>",
		Short: "List a session's recorded interactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interactions, err := newControlClient(serverURL).listInteractions(args[0])
			if err != nil {
				return err
			}

			table := output.NewTableData("ID", "TIME", "METHOD", "URI", "STATUS")
			for _, in := range interactions {
				table.AddRow(in.ID, in.Timestamp.Format("2006-01-02 15:04:05"), in.Method, in.URI, itoa(in.Status))
			}
			return output.PrintTable(os.Stdout, table)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <id>",
		Short: "Remove a session's recordings, keeping the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newControlClient(serverURL).clearInteractions(args[0]); err != nil {
				return err
			}
			fmt.Printf("Recordings for session %s cleared\n", args[0])
			return nil
		},
	}

	sessionsCmd.AddCommand(listCmd, createCmd, deleteCmd, showCmd, setModeCmd, setTargetCmd, interactionsCmd, clearCmd)
	return sessionsCmd
}
