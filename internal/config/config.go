package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const DefaultAsanaBaseURL = "https://app.asana.com/api/1.0"

// Config is the per-deployment bot configuration. It is read once at
// start-up and never mutated afterwards.
type Config struct {
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	BotUsername    string `env:"TELEGRAM_BOT_USERNAME"`
	WebhookSecret  string `env:"TELEGRAM_WEBHOOK_SECRET"`
	AsanaToken     string `env:"ASANA_TOKEN"`
	AsanaProjectID string `env:"ASANA_PROJECT_ID"`
	AsanaBaseURL   string `env:"ASANA_BASE_URL" envDefault:"https://app.asana.com/api/1.0"`

	// DueInDays < 0 disables due dates.
	DueInDays   int    `env:"ASANA_DUE_IN_DAYS" envDefault:"-1"`
	DueTimezone string `env:"ASANA_DUE_TIMEZONE" envDefault:"UTC"`

	AllowedUserIDs UserIDs `env:"ALLOWED_USER_IDS"`

	Port        string        `env:"PORT" envDefault:"8080"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"LOG_FORMAT" envDefault:"json"`

	dueLocation *time.Location
}

// UserIDs is the private-chat whitelist. It parses a comma separated list
// and skips blank entries, so "1, 2,," is two users.
type UserIDs []int64

func (u *UserIDs) UnmarshalText(text []byte) error {
	var ids UserIDs
	for _, part := range strings.Split(string(text), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	*u = ids
	return nil
}

func (u UserIDs) Contains(id int64) bool {
	for _, v := range u {
		if v == id {
			return true
		}
	}
	return false
}

// Load reads an optional .env file from the working directory and then
// parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts. Tests pass
// opts.Environment to avoid touching the process environment.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.AsanaToken == "" {
		missing = append(missing, "ASANA_TOKEN")
	}
	if c.AsanaProjectID == "" {
		missing = append(missing, "ASANA_PROJECT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	loc, err := time.LoadLocation(c.DueTimezone)
	if err != nil {
		return fmt.Errorf("invalid ASANA_DUE_TIMEZONE %q: %w", c.DueTimezone, err)
	}
	c.dueLocation = loc

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	c.BotUsername = NormalizeUsername(c.BotUsername)
	if c.AsanaBaseURL == "" {
		c.AsanaBaseURL = DefaultAsanaBaseURL
	}
	c.AsanaBaseURL = strings.TrimRight(c.AsanaBaseURL, "/")
	return nil
}

// DueLocation is the time zone used to compute due dates.
func (c *Config) DueLocation() *time.Location {
	if c.dueLocation == nil {
		return time.UTC
	}
	return c.dueLocation
}

// DueDate returns the due date for a task created at now, or nil when due
// dates are disabled.
func (c *Config) DueDate(now time.Time) *time.Time {
	if c.DueInDays < 0 {
		return nil
	}
	local := now.In(c.DueLocation())
	d := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, time.UTC).AddDate(0, 0, c.DueInDays)
	return &d
}

func NormalizeUsername(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}
