package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/daemon"
	"github.com/spf13/cobra"
)

// doctorCheck is one line of doctor output. A failed fatal check stops the run.
type doctorCheck struct {
	name  string
	fatal bool
	run   func() (string, error)
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Verify home directory, settings and database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			s := settingsFrom(cmd.Context())

			checks := []doctorCheck{
				{"home", true, func() (string, error) {
					dir := config.ProtectedDir(home)
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return "", err
					}
					f, err := os.CreateTemp(dir, ".doctor-*")
					if err != nil {
						return "", fmt.Errorf("%s is not writable: %w", dir, err)
					}
					_ = f.Close()
					_ = os.Remove(f.Name())
					return home, nil
				}},
				{"settings", true, func() (string, error) {
					return filepath.Base(config.SettingsPath(home)), s.Validate()
				}},
				{"store", false, func() (string, error) {
					st, err := openStore(home, s)
					if err != nil {
						return "", err
					}
					return st.Driver(), st.Close()
				}},
				{"daemon", false, func() (string, error) {
					info, err := daemon.Status(cmd.Context(), home)
					if err != nil || !info.Running {
						return "not running", err
					}
					return fmt.Sprintf("pid %d on %s", info.PID, info.Addr), nil
				}},
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			failed := false
			for _, c := range checks {
				detail, err := c.run()
				if err != nil {
					failed = true
					detail = "FAIL: " + err.Error()
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", c.name, detail)
				if err != nil && c.fatal {
					break
				}
			}
			_ = tw.Flush()
			if failed {
				return errors.New("doctor checks failed")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
