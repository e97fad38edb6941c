package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/notify"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Read or append to the activity log",
	}
	cmd.AddCommand(newLogListCmd())
	cmd.AddCommand(newLogAddCmd())
	return cmd
}

func newLogListCmd() *cobra.Command {
	var (
		req    dashboard.PageRequest
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a page of the activity log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, func(b *dashboard.Board) error {
				page := b.PageActivity(req)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), page)
				}
				for _, e := range page.Logs {
					ts := time.UnixMilli(e.Timestamp).Local().Format(time.DateTime)
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %-18s %s\n", ts, e.ActionType, e.Description)
				}
				p := page.Pagination
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d entries)\n", p.Page, p.TotalPages, p.Total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "Entries per page (default 50, max 100)")
	cmd.Flags().IntVar(&req.Page, "page", 0, "Page number starting at 1")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newLogAddCmd() *cobra.Command {
	var metadata string
	cmd := &cobra.Command{
		Use:   "add ACTION DESCRIPTION",
		Short: "Append an activity entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := dashboard.ActivityInput{ActionType: args[0], Description: args[1]}
			if metadata != "" {
				in.Metadata = json.RawMessage(metadata)
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				e, err := b.AppendActivity(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged entry %d\n", e.ID)

				s := settingsFrom(cmd.Context())
				if s.WebhookURL == "" {
					return nil
				}
				reg := notify.NewRegistry()
				reg.Register(notify.Webhook{URL: s.WebhookURL, Channel: s.WebhookChannel, Username: "jet", Actions: s.WebhookActions})
				if err := reg.Broadcast(cmd.Context(), e); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: webhook: %v\n", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "Metadata (JSON; other text is stored as a string)")
	return writes(cmd)
}
