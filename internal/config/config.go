// Package config provides YAML-based configuration loading for crewplan,
// with environment variable overrides under the CREWPLAN_ prefix.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the top-level crewplan configuration, loaded from config.yaml.
type Config struct {
	Org     string        `yaml:"org" env:"ORG"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	DB      DBConfig      `yaml:"db" envPrefix:"DB_"`
	Slack   SlackConfig   `yaml:"slack" envPrefix:"SLACK_"`
	Discord DiscordConfig `yaml:"discord" envPrefix:"DISCORD_"`
	Digest  DigestConfig  `yaml:"digest" envPrefix:"DIGEST_"`
	Teams   []TeamConfig  `yaml:"teams"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

// DBConfig holds relational store settings. Driver is "mysql" or "sqlite".
type DBConfig struct {
	Driver   string `yaml:"driver" env:"DRIVER"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Database string `yaml:"database" env:"DATABASE"`
	Path     string `yaml:"path" env:"PATH"`
}

// SlackConfig holds the Slack notification adapter settings.
type SlackConfig struct {
	BotToken string `yaml:"bot_token" env:"BOT_TOKEN"`
	Channel  string `yaml:"channel" env:"CHANNEL"`
}

// DiscordConfig holds the Discord notification adapter settings.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token" env:"BOT_TOKEN"`
	Channel  string `yaml:"channel" env:"CHANNEL"`
}

// DigestConfig controls the pending-review digest.
type DigestConfig struct {
	Schedule  string `yaml:"schedule" env:"SCHEDULE"`     // 5-field cron expression
	StaleDays int    `yaml:"stale_days" env:"STALE_DAYS"` // age before a pending request is flagged
}

// TeamConfig seeds a Team row at migration time.
type TeamConfig struct {
	Slug           string `yaml:"slug"`
	Name           string `yaml:"name"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordChannel string `yaml:"discord_channel"`
}

// Load reads a YAML config file from path, applies environment overrides,
// and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes, applies environment overrides, and returns
// a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CREWPLAN_"}); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Driver == "sqlite" && c.DB.Path == "" {
		c.DB.Path = "crewplan.db"
	}
	if c.DB.Driver == "mysql" {
		if c.DB.User == "" {
			c.DB.User = "root"
		}
		if c.DB.Host == "" {
			c.DB.Host = "127.0.0.1"
		}
		if c.DB.Port == 0 {
			c.DB.Port = 3306
		}
		if c.DB.Database == "" && c.Org != "" {
			c.DB.Database = "crewplan_" + c.Org
		}
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 9 * * 1" // Monday 09:00
	}
	if c.Digest.StaleDays == 0 {
		c.Digest.StaleDays = 5
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Org == "" {
		errs = append(errs, "org is required")
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			errs = append(errs, "db.path is required for sqlite")
		}
	case "mysql":
		if c.DB.Database == "" {
			errs = append(errs, "db.database is required for mysql")
		}
	default:
		errs = append(errs, fmt.Sprintf("db.driver %q is not supported (mysql, sqlite)", c.DB.Driver))
	}
	if c.Slack.BotToken != "" && c.Slack.Channel == "" {
		errs = append(errs, "slack.channel is required when slack.bot_token is set")
	}
	if c.Discord.BotToken != "" && c.Discord.Channel == "" {
		errs = append(errs, "discord.channel is required when discord.bot_token is set")
	}
	for i, t := range c.Teams {
		if t.Slug == "" {
			errs = append(errs, fmt.Sprintf("teams[%d].slug is required", i))
		}
		if t.Name == "" {
			errs = append(errs, fmt.Sprintf("teams[%d].name is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
