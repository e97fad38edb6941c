package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
	"github.com/spf13/cobra"
)

func newCardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "card",
		Aliases: []string{"kanban"},
		Short:   "Manage kanban cards",
	}
	cmd.AddCommand(newCardListCmd())
	cmd.AddCommand(newCardAddCmd())
	cmd.AddCommand(newCardEditCmd())
	cmd.AddCommand(newCardMoveCmd())
	cmd.AddCommand(newCardReorderCmd())
	cmd.AddCommand(newCardNormalizeCmd())
	cmd.AddCommand(newCardRmCmd())
	return cmd
}

func printCard(w io.Writer, c models.KanbanCard) {
	auto := ""
	if c.AutoPickup {
		auto = " auto"
	}
	_, _ = fmt.Fprintf(w, "- #%d [%s/%d] %s (%s%s)\n", c.ID, c.Status, c.Order, c.Title, c.Priority, auto)
}

func newCardListCmd() *cobra.Command {
	var (
		f      dashboard.Filter
		auto   bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards in board order",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.AutoPickup = optionalFlag(cmd, "auto-pickup", auto)
			return withBoard(cmd, func(b *dashboard.Board) error {
				cards := b.ListCards(f)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), cards)
				}
				if len(cards) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No cards")
					return nil
				}
				for _, c := range cards {
					printCard(cmd.OutOrStdout(), c)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "Only this column (backlog, in_progress, review, done)")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "Only this priority")
	cmd.Flags().StringVar(&f.Search, "search", "", "Case-insensitive text in title, description or tags")
	cmd.Flags().BoolVar(&auto, "auto-pickup", false, "Filter on the auto-pickup flag")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newCardAddCmd() *cobra.Command {
	var (
		in          dashboard.CardInput
		description string
		tags        string
		order       int
	)
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			in.Description = optionalFlag(cmd, "description", description)
			in.Tags = optionalFlag(cmd, "tags", tags)
			in.Order = optionalFlag(cmd, "order", order)
			return withBoard(cmd, func(b *dashboard.Board) error {
				c, err := b.CreateCard(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created card %d in %s\n", c.ID, c.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Card description")
	cmd.Flags().StringVar(&tags, "tags", "", "Tags (comma separated or a JSON array)")
	cmd.Flags().StringVar(&in.Status, "status", models.StatusBacklog, "Column")
	cmd.Flags().StringVar(&in.Priority, "priority", models.PriorityMedium, "Priority (low, medium, high, urgent)")
	cmd.Flags().BoolVar(&in.AutoPickup, "auto-pickup", false, "Let the assistant pick this card up")
	cmd.Flags().IntVar(&order, "order", 0, "Position in the column (default: end)")
	return writes(cmd)
}

func newCardEditCmd() *cobra.Command {
	var (
		title, description, tags string
		status, priority         string
		auto                     bool
		order                    int
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := dashboard.KanbanPatch{
				Title:       optionalFlag(cmd, "title", title),
				Description: optionalFlag(cmd, "description", description),
				Tags:        optionalFlag(cmd, "tags", tags),
				Status:      optionalFlag(cmd, "status", status),
				Priority:    optionalFlag(cmd, "priority", priority),
				AutoPickup:  optionalFlag(cmd, "auto-pickup", auto),
				Order:       optionalFlag(cmd, "order", order),
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				c, ok, err := b.UpdateCard(cmd.Context(), id, p)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("card %d not found", id)
				}
				printCard(cmd.OutOrStdout(), c)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&tags, "tags", "", "New tags")
	cmd.Flags().StringVar(&status, "status", "", "New column")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority")
	cmd.Flags().BoolVar(&auto, "auto-pickup", false, "Auto-pickup flag")
	cmd.Flags().IntVar(&order, "order", 0, "New position in the column")
	return writes(cmd)
}

func newCardMoveCmd() *cobra.Command {
	var order int
	cmd := &cobra.Command{
		Use:   "move ID STATUS",
		Short: "Move a card to a column, optionally at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			target := optionalFlag(cmd, "order", order)
			return withBoard(cmd, func(b *dashboard.Board) error {
				res, ok, err := b.MoveCard(cmd.Context(), id, args[1], target)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("card %d not found", id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Moved card %d to %s at %d (%d cards renumbered)\n", res.Card.ID, res.Card.Status, res.Card.Order, len(res.Changed))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&order, "order", 0, "Target position (default: end of column)")
	return writes(cmd)
}

func newCardReorderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder STATUS FROM TO",
		Short: "Move the card at index FROM of a column to index TO",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[2])
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				column, err := b.ReorderColumn(cmd.Context(), args[0], from, to)
				if err != nil {
					return err
				}
				for _, c := range column {
					printCard(cmd.OutOrStdout(), c)
				}
				return nil
			})
		},
	}
	return writes(cmd)
}

func newCardNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize STATUS",
		Short: "Renumber a column 0..n-1 in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, func(b *dashboard.Board) error {
				column, err := b.NormalizeColumn(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Normalized %s (%d cards)\n", args[0], len(column))
				return nil
			})
		},
	}
	return writes(cmd)
}

func newCardRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				ok, err := b.DeleteCard(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("card %d not found", id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d\n", id)
				return nil
			})
		},
	}
	return writes(cmd)
}
