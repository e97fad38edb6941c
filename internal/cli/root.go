package cli

import (
	"context"
	"os"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/logging"
	"github.com/spf13/cobra"
)

type settingsKey struct{}

func withSettings(ctx context.Context, s config.Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// settingsFrom returns the settings resolved by the root command, or the defaults.
func settingsFrom(ctx context.Context) config.Settings {
	if s, ok := ctx.Value(settingsKey{}).(config.Settings); ok {
		return s
	}
	return config.Defaults()
}

func NewRootCmd(version string) *cobra.Command {
	var (
		homeOverride string
		envFiles     []string
	)

	cmd := &cobra.Command{
		Use:          "jet",
		Short:        "Jet: personal kanban, notes and docs dashboard with a web UI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(envFiles...); err != nil {
				return err
			}
			home, err := config.ResolveHome(homeOverride)
			if err != nil {
				return err
			}
			settings, err := config.LoadSettings(home)
			if err != nil {
				return err
			}
			if _, err := logging.Init(cmd.ErrOrStderr(), settings.LogLevel, settings.LogFormat); err != nil {
				return err
			}
			ctx := config.WithHome(cmd.Context(), home)
			cmd.SetContext(withSettings(ctx, settings))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&homeOverride, "home", "", "Override jet home directory (default: ~/.jet, env: JET_HOME)")
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load env vars from dotenv file(s) before reading settings")

	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.AddCommand(newCardCmd())
	cmd.AddCommand(newBrainCmd())
	cmd.AddCommand(newDocCmd())
	cmd.AddCommand(newNoteCmd())
	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newStateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newExportCmd())

	cmd.AddCommand(newApikeyCmd())
	cmd.AddCommand(newNukeCmd())

	// Hidden internal subcommand used by `jet start` for background mode.
	cmd.AddCommand(newDaemonCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
