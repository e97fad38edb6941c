package cli

import (
	"fmt"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/spf13/cobra"
)

func newBrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brain",
		Short: "Manage brain cards (reference knowledge)",
	}
	cmd.AddCommand(newBrainListCmd())
	cmd.AddCommand(newBrainAddCmd())
	cmd.AddCommand(newBrainRmCmd())
	return cmd
}

func newBrainListCmd() *cobra.Command {
	var (
		f      dashboard.Filter
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List brain cards, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, func(b *dashboard.Board) error {
				cards := b.ListBrain(f)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), cards)
				}
				if len(cards) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No brain cards")
					return nil
				}
				for _, c := range cards {
					category := "-"
					if c.Category != nil {
						category = *c.Category
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- #%d %s (%s)\n", c.ID, c.Title, category)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", "", "Only this category")
	cmd.Flags().StringVar(&f.Search, "search", "", "Case-insensitive text in title, content or tags")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newBrainAddCmd() *cobra.Command {
	var content, category, tags string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a brain card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := dashboard.BrainInput{
				Title:    args[0],
				Content:  optionalFlag(cmd, "content", content),
				Category: optionalFlag(cmd, "category", category),
				Tags:     optionalFlag(cmd, "tags", tags),
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				c, err := b.CreateBrain(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created brain card %d\n", c.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Card content")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringVar(&tags, "tags", "", "Tags (comma separated or a JSON array)")
	return writes(cmd)
}

func newBrainRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a brain card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				ok, err := b.DeleteBrain(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("brain card %d not found", id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted brain card %d\n", id)
				return nil
			})
		},
	}
	return writes(cmd)
}
