package cli

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// serverFlags are the settings that start and daemon accept on the command line.
type serverFlags struct {
	port       int
	dev        bool
	pprofAddr  string
	dbDriver   string
	dbURL      string
	enableOtel bool
}

func (f *serverFlags) register(fs *pflag.FlagSet) {
	d := config.Defaults()
	fs.IntVar(&f.port, "port", d.Port, "Port for the web UI")
	fs.BoolVar(&f.dev, "dev", false, "Enable dev mode (permissive CORS)")
	fs.StringVar(&f.pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	fs.StringVar(&f.dbDriver, "db-driver", d.DBDriver, "Store driver: sqlite or postgres")
	fs.StringVar(&f.dbURL, "db-url", "", "DB connection string (for postgres; or set DATABASE_URL)")
	fs.BoolVar(&f.enableOtel, "otel", d.Otel, "Enable OpenTelemetry metrics (Prometheus exporter, HTTP/SSE/card instrumentation)")
}

// options merges explicitly set flags over the resolved settings.
func (f *serverFlags) options(cmd *cobra.Command) (daemon.StartOptions, error) {
	s := settingsFrom(cmd.Context())
	fs := cmd.Flags()
	if fs.Changed("port") {
		s.Port = f.port
	}
	if fs.Changed("dev") {
		s.Dev = f.dev
	}
	if fs.Changed("pprof") {
		s.PprofAddr = f.pprofAddr
	}
	if fs.Changed("db-driver") {
		s.DBDriver = f.dbDriver
	}
	if fs.Changed("db-url") {
		s.DBURL = f.dbURL
		if !fs.Changed("db-driver") {
			s.DBDriver = "postgres"
		}
	}
	if fs.Changed("otel") {
		s.Otel = f.enableOtel
	}
	if err := s.Validate(); err != nil {
		return daemon.StartOptions{}, err
	}
	opts := daemon.OptionsFromSettings(config.MustHomeFrom(cmd.Context()), s)
	opts.Version = cmd.Root().Version
	return opts, nil
}

func newStartCmd() *cobra.Command {
	var (
		flags      serverFlags
		foreground bool
		noBrowser  bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start jet (web UI + background jobs)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			ui := (&url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", opts.Port)}).String()

			if foreground {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting jet in foreground on %s\n", ui)
				return daemon.StartForeground(cmd.Context(), opts)
			}
			pid, err := daemon.StartBackground(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "jet started (pid %d)\nUI: %s\n", pid, ui)
			if !noBrowser {
				_ = openBrowser(ui)
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (do not daemonize)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the dashboard in a browser")
	return cmd
}

// newDaemonCmd is what StartBackground re-executes.
func newDaemonCmd() *cobra.Command {
	var flags serverFlags
	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			return daemon.StartForeground(cmd.Context(), opts)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func openBrowser(u string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", u).Start()
	default:
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return err
		}
		return exec.Command("xdg-open", u).Start()
	}
}
