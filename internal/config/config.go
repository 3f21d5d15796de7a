package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration, populated from the environment
// after main loads the .env file.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// SessionStore picks the persistence backend: memory, postgres or
	// sqlite.
	SessionStore string        `envconfig:"SESSION_STORE" default:"memory"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SweepEvery   time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`

	DisableWebhookValidation bool `envconfig:"DISABLE_WEBHOOK_VALIDATION" default:"false"`

	Twilio   TwilioConfig
	Database DatabaseConfig
}

// TwilioConfig holds the outbound transport credentials. Template SIDs are
// optional; without them interactive messages fall back to plain text.
type TwilioConfig struct {
	AccountSID        string `envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken         string `envconfig:"TWILIO_AUTH_TOKEN"`
	WhatsAppFrom      string `envconfig:"TWILIO_WHATSAPP_FROM"`
	ButtonTemplateSID string `envconfig:"TWILIO_BUTTON_TEMPLATE_SID"`
	ListTemplateSID   string `envconfig:"TWILIO_LIST_TEMPLATE_SID"`
}

// DatabaseConfig covers both Postgres (local TCP or Cloud SQL socket) and
// the embedded SQLite file.
type DatabaseConfig struct {
	User                   string `envconfig:"DB_USER" default:"postgres"`
	Password               string `envconfig:"DB_PASS"`
	Name                   string `envconfig:"DB_NAME" default:"concierge"`
	Host                   string `envconfig:"DB_HOST" default:"localhost"`
	Port                   string `envconfig:"DB_PORT" default:"5432"`
	InstanceConnectionName string `envconfig:"INSTANCE_CONNECTION_NAME"`
	SQLitePath             string `envconfig:"SQLITE_PATH" default:"concierge.db"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

// Development reports whether the process runs in development mode.
func (c *Config) Development() bool {
	return c.Environment == "development"
}
