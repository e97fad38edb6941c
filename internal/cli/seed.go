package cli

import (
	"fmt"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		file string
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all kanban and brain cards with seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := dashboard.DefaultSeed()
			if file != "" {
				data, err = dashboard.LoadSeed(file)
			}
			if err != nil {
				return err
			}
			if !yes {
				prompt := fmt.Sprintf("This deletes every kanban and brain card and loads %d tasks and %d brain cards.", len(data.Tasks), len(data.Brain))
				if ok, err := confirm(cmd, prompt, "seed"); err != nil || !ok {
					return err
				}
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				res, err := b.Seed(cmd.Context(), data)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML seed file (default: built-in Jet data)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return writes(cmd)
}
