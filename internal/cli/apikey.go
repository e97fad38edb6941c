package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/spf13/cobra"
)

func newApikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the API key that protects the server when exposed over a network",
	}
	cmd.AddCommand(newApikeyGenerateCmd())
	return cmd
}

func generateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// setEnvKey sets key in the dotenv file at path, keeping its other entries.
func setEnvKey(path, key, value string) error {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		if env, err = godotenv.Read(path); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}
	env[key] = value
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}

func newApikeyGenerateCmd() *cobra.Command {
	var (
		envFile string
		save    bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random API key and print usage instructions",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := generateKey()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Generated API key (save it somewhere safe):")
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintln(out, "  "+key)
			_, _ = fmt.Fprintln(out)

			switch {
			case save:
				home := config.MustHomeFrom(cmd.Context())
				s := settingsFrom(cmd.Context())
				s.APIKey = key
				if err := config.WriteSettings(home, s); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "Saved api_key to %s; restart jet to apply it.\n", config.SettingsPath(home))
			case envFile != "":
				if err := setEnvKey(envFile, "JET_API_KEY", key); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "Wrote JET_API_KEY to %s\n", envFile)
				_, _ = fmt.Fprintln(out, "Start the server with: jet --env-file "+envFile+" start")
			default:
				_, _ = fmt.Fprintln(out, "Use it:")
				_, _ = fmt.Fprintln(out, "  1. On the server: export JET_API_KEY="+key)
				_, _ = fmt.Fprintln(out, "     Or run: jet apikey generate --save")
			}
			_, _ = fmt.Fprintln(out, "  Clients send header X-API-Key: <key> or query ?api_key=<key>")
			_, _ = fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env", "", "Append JET_API_KEY to this dotenv file (e.g. .env)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the key in <home>/config.yaml")
	cmd.MarkFlagsMutuallyExclusive("env", "save")
	return cmd
}
