package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/daemon"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store/postgres"
	"github.com/spf13/cobra"
)

func openStore(home string, s config.Settings) (store.Store, error) {
	if s.DBDriver == "postgres" {
		return postgres.Open(s.DBURL)
	}
	return store.Open(home)
}

// withBoard opens the configured store, loads the board and runs fn against it.
// A running daemon keeps its own in-memory copy, so it is warned about rather than updated.
func withBoard(cmd *cobra.Command, fn func(b *dashboard.Board) error) error {
	home := config.MustHomeFrom(cmd.Context())
	s := settingsFrom(cmd.Context())
	st, err := openStore(home, s)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	b, err := dashboard.New(cmd.Context(), st, dashboard.Options{Logger: slog.Default()})
	if err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return err
	}
	if cmd.Annotations[annotationWrites] != "" {
		warnIfRunning(cmd)
	}
	return nil
}

// warnIfRunning tells the user that a running daemon will not see a direct store write until restart.
func warnIfRunning(cmd *cobra.Command) {
	if info, _ := daemon.Status(cmd.Context(), config.MustHomeFrom(cmd.Context())); info.Running {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "note: jet is running (pid %d); restart it to see this change in the UI\n", info.PID)
	}
}

const annotationWrites = "writes"

// writes marks cmd as mutating the store.
func writes(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationWrites] = "true"
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := dashboard.ParseID(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// optionalFlag returns a pointer to v when the flag was given on the command line.
func optionalFlag[T any](cmd *cobra.Command, name string, v T) *T {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}
