package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/hperssn/blastemst/internal/reminder"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	DBDriver     string `env:"DB_DRIVER" default:"sqlite"`
	DatabasePath string `env:"DATABASE_PATH" default:"blast_emst.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	ReminderWindow       time.Duration `env:"REMINDER_WINDOW" default:"24h"`
	ReminderDefaultDelay time.Duration `env:"REMINDER_DEFAULT_DELAY" default:"1440m"`
	ReminderNudgeDelay   time.Duration `env:"REMINDER_NUDGE_DELAY" default:"10m"`

	CalendarTZ string `env:"CALENDAR_TZ" default:"Local"`

	// Haptics tells the headless playback backend to report a vibrator.
	Haptics bool `env:"HAPTICS" default:"true"`
	// NotificationsAllowed plays the role of the OS notification permission.
	NotificationsAllowed bool `env:"NOTIFICATIONS_ALLOWED" default:"true"`
	// ProxyAuth requires a reverse-proxy user header on app routes.
	ProxyAuth bool `env:"PROXY_AUTH" default:"false"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DatabaseTarget is what the bridge opens: a file path for SQLite, a
// connection string for Postgres.
func (c *Config) DatabaseTarget() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DatabasePath
}

func (c *Config) ReminderPolicy() reminder.Policy {
	return reminder.Policy{
		Window:       c.ReminderWindow,
		DefaultDelay: c.ReminderDefaultDelay,
		NudgeDelay:   c.ReminderNudgeDelay,
	}
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.CalendarTZ)
}

func validate(cfg *Config) error {
	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DatabasePath == "" {
			return errors.New("DATABASE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"REMINDER_WINDOW", cfg.ReminderWindow},
		{"REMINDER_DEFAULT_DELAY", cfg.ReminderDefaultDelay},
		{"REMINDER_NUDGE_DELAY", cfg.ReminderNudgeDelay},
	}
	for _, d := range durations {
		if d.value < time.Minute {
			return fmt.Errorf("%s must be at least 1m, got %s", d.name, d.value)
		}
	}

	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("CALENDAR_TZ is not a known time zone: %w", err)
	}

	return nil
}
