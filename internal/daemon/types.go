package daemon

import (
	"strconv"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
)

// StartOptions configures the daemon (home, port, DB, webhook, background job intervals).
type StartOptions struct {
	Home       string
	Port       int
	Dev        bool
	PprofAddr  string
	APIKey     string // if set, required on every API request except /health and /metrics
	DBDriver   string // "sqlite" (default) or "postgres"
	DBURL      string // for postgres: connection string
	EnableOtel bool   // enable OpenTelemetry metrics (Prometheus exporter + HTTP/SSE/card instrumentation)
	Version    string // reported as service.version on metrics

	WebhookURL     string
	WebhookChannel string
	WebhookActions []string

	StatusSyncInterval time.Duration // how often last_sync is refreshed
	ChatIdleTimeout    time.Duration // chat sessions idle longer than this are dropped
	ChatPruneInterval  time.Duration // how often idle chat sessions are looked for
}

// withDefaults fills zero fields from config.Defaults.
func (o StartOptions) withDefaults() StartOptions {
	d := config.Defaults()
	if o.Port == 0 {
		o.Port = d.Port
	}
	if o.StatusSyncInterval == 0 {
		o.StatusSyncInterval = d.StatusSyncInterval
	}
	if o.ChatIdleTimeout == 0 {
		o.ChatIdleTimeout = d.ChatIdleTimeout
	}
	if o.ChatPruneInterval == 0 {
		o.ChatPruneInterval = d.ChatPruneInterval
	}
	return o
}

// childArgs are the "jet daemon" arguments that reproduce o in a background process.
func (o StartOptions) childArgs() []string {
	args := []string{"daemon", "--home", o.Home, "--port", strconv.Itoa(o.Port)}
	if o.Dev {
		args = append(args, "--dev")
	}
	if o.PprofAddr != "" {
		args = append(args, "--pprof", o.PprofAddr)
	}
	if !o.EnableOtel {
		args = append(args, "--otel=false")
	}
	return args
}

// childEnv carries the database and api key settings. They go through the
// environment so they stay out of the process list.
func (o StartOptions) childEnv(base []string) []string {
	env := append(base[:len(base):len(base)], "JET_DB_DRIVER="+o.DBDriver)
	if o.DBURL != "" {
		env = append(env, "JET_DB_URL="+o.DBURL)
	}
	if o.APIKey != "" {
		env = append(env, "JET_API_KEY="+o.APIKey)
	}
	return env
}

// OptionsFromSettings maps resolved settings onto StartOptions.
func OptionsFromSettings(home string, s config.Settings) StartOptions {
	return StartOptions{
		Home:               home,
		Port:               s.Port,
		Dev:                s.Dev,
		PprofAddr:          s.PprofAddr,
		APIKey:             s.APIKey,
		DBDriver:           s.DBDriver,
		DBURL:              s.DBURL,
		EnableOtel:         s.Otel,
		WebhookURL:         s.WebhookURL,
		WebhookChannel:     s.WebhookChannel,
		WebhookActions:     s.WebhookActions,
		StatusSyncInterval: s.StatusSyncInterval,
		ChatIdleTimeout:    s.ChatIdleTimeout,
		ChatPruneInterval:  s.ChatPruneInterval,
	}
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Addr    string `json:"addr,omitempty"`
}
