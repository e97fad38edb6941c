package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration. Sources, highest first: command-line flags
// (applied by the caller), JET_* environment variables, <home>/config.yaml, defaults.
type Settings struct {
	Port      int    `mapstructure:"port" yaml:"port"`
	Dev       bool   `mapstructure:"dev" yaml:"dev"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	DBDriver  string `mapstructure:"db_driver" yaml:"db_driver"`
	DBURL     string `mapstructure:"db_url" yaml:"db_url,omitempty"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	PprofAddr string `mapstructure:"pprof_addr" yaml:"pprof_addr,omitempty"`
	Otel      bool   `mapstructure:"otel" yaml:"otel"`

	WebhookURL     string   `mapstructure:"webhook_url" yaml:"webhook_url,omitempty"`
	WebhookChannel string   `mapstructure:"webhook_channel" yaml:"webhook_channel,omitempty"`
	WebhookActions []string `mapstructure:"webhook_actions" yaml:"webhook_actions,omitempty"`

	StatusSyncInterval time.Duration `mapstructure:"status_sync_interval" yaml:"status_sync_interval"`
	ChatIdleTimeout    time.Duration `mapstructure:"chat_idle_timeout" yaml:"chat_idle_timeout"`
	ChatPruneInterval  time.Duration `mapstructure:"chat_prune_interval" yaml:"chat_prune_interval"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		Port:               3548,
		DBDriver:           "sqlite",
		LogLevel:           "info",
		LogFormat:          "text",
		Otel:               true,
		StatusSyncInterval: 30 * time.Second,
		ChatIdleTimeout:    24 * time.Hour,
		ChatPruneInterval:  time.Hour,
	}
}

// SettingsPath is the config file inside home.
func SettingsPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// LoadEnvFiles loads dotenv files into the process environment. Variables already set win.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// LoadSettings reads <home>/config.yaml (optional) and the environment over Defaults.
// DATABASE_URL is accepted for db_url alongside JET_DB_URL.
func LoadSettings(home string) (Settings, error) {
	d := Defaults()
	v := viper.New()
	v.SetDefault("port", d.Port)
	v.SetDefault("dev", d.Dev)
	v.SetDefault("api_key", "")
	v.SetDefault("db_url", "")
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("pprof_addr", "")
	v.SetDefault("otel", d.Otel)
	v.SetDefault("webhook_url", "")
	v.SetDefault("webhook_channel", "")
	v.SetDefault("webhook_actions", []string{})
	v.SetDefault("status_sync_interval", d.StatusSyncInterval)
	v.SetDefault("chat_idle_timeout", d.ChatIdleTimeout)
	v.SetDefault("chat_prune_interval", d.ChatPruneInterval)

	v.SetEnvPrefix("JET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("db_url", "JET_DB_URL", "DATABASE_URL"); err != nil {
		return Settings{}, err
	}
	if err := v.BindEnv("db_driver"); err != nil {
		return Settings{}, err
	}

	if home != "" {
		path := SettingsPath(home)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// A database URL without an explicit driver selects postgres.
	if s.DBDriver == "" {
		s.DBDriver = d.DBDriver
		if s.DBURL != "" {
			s.DBDriver = "postgres"
		}
	}
	return s, s.Validate()
}

// Validate checks values that would otherwise fail later at startup.
func (s Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	switch s.DBDriver {
	case "sqlite":
	case "postgres":
		if s.DBURL == "" {
			return errors.New("db_driver postgres requires db_url or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown db_driver %q", s.DBDriver)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", s.LogFormat)
	}
	return nil
}

// WriteSettings writes s to <home>/config.yaml.
func WriteSettings(home string, s Settings) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(SettingsPath(home), data, 0o600)
}
