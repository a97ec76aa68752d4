// Package config provides YAML-based configuration loading for parley.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Default limits applied when the config leaves them unset.
const (
	DefaultMaxMessageLength      = 10000
	DefaultMaxConversationLength = 100
	DefaultHistoryWindow         = 50
	DefaultServerPort            = 8080
	DefaultSQLitePath            = "parley.db"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is the top-level parley configuration, loaded from parley.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Limits   LimitsConfig   `yaml:"limits"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Events   EventsConfig   `yaml:"events"`
}

// DatabaseConfig selects and addresses the storage backend.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite file, ":memory:" allowed
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LimitsConfig holds the session manager limits.
type LimitsConfig struct {
	MaxMessageLength      int `yaml:"max_message_length"`
	MaxConversationLength int `yaml:"max_conversation_length"` // advisory only
	HistoryWindow         int `yaml:"history_window"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // auto, text, json
}

// EventsConfig configures where lifecycle events are published.
type EventsConfig struct {
	Slack      SlackConfig   `yaml:"slack"`
	Discord    DiscordConfig `yaml:"discord"`
	DigestCron string        `yaml:"digest_cron"` // 5-field cron; empty disables the digest
}

// SlackConfig holds Slack bot credentials for event delivery.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord bot credentials for event delivery.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration with every default applied,
// used when no config file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			c.Database.Path = DefaultSQLitePath
		}
	case DriverMySQL:
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "parley"
		}
	}
	if c.Limits.MaxMessageLength == 0 {
		c.Limits.MaxMessageLength = DefaultMaxMessageLength
	}
	if c.Limits.MaxConversationLength == 0 {
		c.Limits.MaxConversationLength = DefaultMaxConversationLength
	}
	if c.Limits.HistoryWindow == 0 {
		c.Limits.HistoryWindow = DefaultHistoryWindow
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "auto"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (use sqlite or mysql)", c.Database.Driver))
	}
	if c.Limits.MaxMessageLength < 0 {
		errs = append(errs, "limits.max_message_length must be positive")
	}
	if c.Limits.MaxConversationLength < 0 {
		errs = append(errs, "limits.max_conversation_length must be positive")
	}
	if c.Limits.HistoryWindow < 0 {
		errs = append(errs, "limits.history_window must be positive")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not supported", c.Log.Level))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not supported", c.Log.Format))
	}
	if (c.Events.Slack.BotToken == "") != (c.Events.Slack.ChannelID == "") {
		errs = append(errs, "events.slack requires both bot_token and channel_id")
	}
	if (c.Events.Discord.BotToken == "") != (c.Events.Discord.ChannelID == "") {
		errs = append(errs, "events.discord requires both bot_token and channel_id")
	}
	if c.Events.DigestCron != "" {
		if _, err := cron.ParseStandard(c.Events.DigestCron); err != nil {
			errs = append(errs, fmt.Sprintf("events.digest_cron %q is invalid: %v", c.Events.DigestCron, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
