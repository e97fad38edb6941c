package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/daemon"
	"github.com/spf13/cobra"
)

// confirm prints prompt and reports whether the next input line is phrase.
func confirm(cmd *cobra.Command, prompt, phrase string) (bool, error) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\nType %q to confirm:\n", prompt, phrase)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	if strings.TrimSpace(line) != phrase {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return false, nil
	}
	return true, nil
}

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the jet daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := daemon.Status(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			switch {
			case asJSON:
				return printJSON(cmd.OutOrStdout(), info)
			case info.Running:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "jet running (pid %d, addr %s)\n", info.PID, info.Addr)
			default:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "jet not running")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running jet daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stopped, err := daemon.Stop(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			msg := "Stopped"
			if !stopped {
				msg = "jet is not running"
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newNukeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nuke",
		Short: "Delete the jet home directory and everything in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			if info, _ := daemon.Status(cmd.Context(), home); info.Running {
				return fmt.Errorf("jet is running (pid %d); run jet stop first", info.PID)
			}
			prompt := "WARNING: this permanently deletes " + home
			if settingsFrom(cmd.Context()).DBDriver == "postgres" {
				prompt += "\nThe postgres database is not touched; only local files are removed."
			}
			ok, err := confirm(cmd, prompt, "delete everything")
			if err != nil || !ok {
				return err
			}
			if err := os.RemoveAll(home); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}
