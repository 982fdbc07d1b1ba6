package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	ProviderTwilio = "twilio"
	ProviderNone   = "none"
)

type Server struct {
	Port            string `toml:"port"`
	ShutdownTimeout int    `toml:"shutdown_timeout_seconds"`
}

type Database struct {
	// Driver selects the store: "postgres" or "memory".
	Driver string `toml:"driver"`
	URL    string `toml:"url"`
}

// Pipeline tunes how transitions are retried after a concurrency conflict.
type Pipeline struct {
	MaxAttempts    int `toml:"max_attempts"`
	RetryBackoffMS int `toml:"retry_backoff_ms"`
}

type Notifier struct {
	Provider        string `toml:"provider"`
	AccountSID      string `toml:"account_sid"`
	AuthToken       string `toml:"auth_token"`
	From            string `toml:"from"`
	APIBase         string `toml:"api_base"`
	FallbackGateway string `toml:"fallback_gateway"`
	ChannelPrefix   string `toml:"channel_prefix"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

type Log struct {
	Level string `toml:"level"`
}

type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Pipeline Pipeline `toml:"pipeline"`
	Notifier Notifier `toml:"notifier"`
	Log      Log      `toml:"log"`
}

func Default() Config {
	return Config{
		Server:   Server{Port: "8080", ShutdownTimeout: 10},
		Database: Database{Driver: DriverPostgres, URL: "postgres://localhost:5432/prodline?sslmode=disable"},
		Pipeline: Pipeline{MaxAttempts: 3, RetryBackoffMS: 25},
		Notifier: Notifier{
			Provider:        ProviderNone,
			APIBase:         "https://api.twilio.com",
			FallbackGateway: "wa.me",
			ChannelPrefix:   "whatsapp:+",
			TimeoutSeconds:  10,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads an optional TOML file, applies environment overrides and
// validates the result. A missing file is not an error; path "" skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			dec := toml.NewDecoder(file)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PORT", &c.Server.Port)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("LOG_LEVEL", &c.Log.Level)
	str("TWILIO_ACCOUNT_SID", &c.Notifier.AccountSID)
	str("TWILIO_AUTH_TOKEN", &c.Notifier.AuthToken)
	str("TWILIO_WHATSAPP_NUMBER", &c.Notifier.From)
	if err := num("MAX_TRANSITION_ATTEMPTS", &c.Pipeline.MaxAttempts); err != nil {
		return err
	}
	if err := num("NOTIFIER_TIMEOUT_SECONDS", &c.Notifier.TimeoutSeconds); err != nil {
		return err
	}

	// Credentials alone are enough to switch the gateway on.
	if c.Notifier.AccountSID != "" && c.Notifier.Provider == ProviderNone {
		if _, explicit := lookup("NOTIFIER_PROVIDER"); !explicit {
			c.Notifier.Provider = ProviderTwilio
		}
	}
	str("NOTIFIER_PROVIDER", &c.Notifier.Provider)
	return nil
}

func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Notifier.Provider = strings.ToLower(strings.TrimSpace(c.Notifier.Provider))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Server.Port = strings.TrimPrefix(strings.TrimSpace(c.Server.Port), ":")
}

func (c *Config) Addr() string { return ":" + c.Server.Port }

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Pipeline.RetryBackoffMS) * time.Millisecond
}

func (c *Config) NotifierTimeout() time.Duration {
	return time.Duration(c.Notifier.TimeoutSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// SlogLevel maps log.level onto slog; unknown values were rejected by Validate.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
