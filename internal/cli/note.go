package cli

import (
	"fmt"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/spf13/cobra"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Manage notes for the assistant",
	}
	cmd.AddCommand(newNoteListCmd())
	cmd.AddCommand(newNoteAddCmd())
	cmd.AddCommand(newNoteSeenCmd())
	cmd.AddCommand(newNoteRmCmd())
	return cmd
}

func newNoteListCmd() *cobra.Command {
	var (
		unseen bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f dashboard.Filter
			if unseen {
				seen := false
				f.Seen = &seen
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				notes := b.ListNotes(f)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), notes)
				}
				if len(notes) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No notes")
					return nil
				}
				for _, n := range notes {
					mark := " "
					if n.Seen {
						mark = "x"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- [%s] #%d %s\n", mark, n.ID, n.Content)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unseen, "unseen", false, "Only notes not yet processed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newNoteAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Leave a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, func(b *dashboard.Board) error {
				n, err := b.CreateNote(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created note %d\n", n.ID)
				return nil
			})
		},
	}
	return writes(cmd)
}

func newNoteSeenCmd() *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "seen ID",
		Short: "Mark a note processed (or unprocessed with --unset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				n, ok, err := b.SetNoteSeen(cmd.Context(), id, !unset)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("note %d not found", id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Note %d seen=%t\n", n.ID, n.Seen)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "Mark the note as not seen")
	return writes(cmd)
}

func newNoteRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				ok, err := b.DeleteNote(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("note %d not found", id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %d\n", id)
				return nil
			})
		},
	}
	return writes(cmd)
}
