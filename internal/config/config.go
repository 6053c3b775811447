package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds all runtime settings. Values come from an optional YAML file
// and can be overridden per-field by environment variables, so deploys can
// ship a checked-in config.yaml and still tweak secrets through the env.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"databaseUrl"`

	// Bcrypt hash of the shared token data-entry tooling presents on
	// write endpoints. Empty disables auth (local dev only).
	APITokenHash string `yaml:"apiTokenHash"`

	// Outbound notification targets. Empty values disable the
	// corresponding notifier.
	WebhookURL        string `yaml:"webhookUrl"`
	SlackAPIToken     string `yaml:"slackApiToken"`
	SlackChannel      string `yaml:"slackChannel"`
	SlackAlertChannel string `yaml:"slackAlertChannel"`

	// Upper bound on each outbound notification call, in seconds.
	NotifyTimeoutSeconds int `yaml:"notifyTimeoutSeconds"`

	// Requests per second allowed on the public read routes.
	PublicRateLimit int `yaml:"publicRateLimit"`
	PublicRateBurst int `yaml:"publicRateBurst"`
}

// Load reads the YAML file at path (missing file is fine; env-only setups
// are supported) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		Port:                 "5050",
		NotifyTimeoutSeconds: 5,
		PublicRateLimit:      20,
		PublicRateBurst:      40,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.APITokenHash, "API_TOKEN_HASH")
	overrideString(&cfg.WebhookURL, "API_WEBHOOK_URL")
	overrideString(&cfg.SlackAPIToken, "SLACK_API_TOKEN")
	overrideString(&cfg.SlackChannel, "SLACK_CHANNEL")
	overrideString(&cfg.SlackAlertChannel, "SLACK_ALERT_CHANNEL")
	overrideInt(&cfg.NotifyTimeoutSeconds, "NOTIFY_TIMEOUT_SECONDS")
	overrideInt(&cfg.PublicRateLimit, "PUBLIC_RATE_LIMIT")
	overrideInt(&cfg.PublicRateBurst, "PUBLIC_RATE_BURST")

	return cfg, nil
}

// NotifyTimeout returns the outbound notification deadline as a Duration.
func (c Config) NotifyTimeout() time.Duration {
	if c.NotifyTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.NotifyTimeoutSeconds) * time.Second
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
