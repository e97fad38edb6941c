package cli

import (
	"fmt"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state [STATE]",
		Short: "Show or set the assistant state (Idle, Thinking, Working, Sleeping)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, func(b *dashboard.Board) error {
				st := b.GetStatus()
				if len(args) == 1 {
					var err error
					if st, err = b.SetStatus(cmd.Context(), args[0]); err != nil {
						return err
					}
					warnIfRunning(cmd)
				}
				printStatus(cmd, st)
				return nil
			})
		},
	}
	return cmd
}

func printStatus(cmd *cobra.Command, st models.Status) {
	last := "never"
	if st.LastSync > 0 {
		last = time.UnixMilli(st.LastSync).Local().Format(time.DateTime)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (last sync %s)\n", st.Status, last)
}
