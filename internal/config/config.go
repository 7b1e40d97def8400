// Package config holds the server settings. Values come from command line
// flags, falling back to TH_* environment variables and then defaults.
// Environment files are loaded with LoadEnvFiles before parsing.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `help:"Minimum log level (debug, info, warn, error)." default:"info" env:"TH_LOG_LEVEL"`
	// Format is "json" or "console".
	Format string `help:"Log output format (json, console)." default:"json" env:"TH_LOG_FORMAT"`
}

// WebSocketConfig holds per-connection transport settings.
type WebSocketConfig struct {
	AllowedOrigins  []string      `help:"Host patterns allowed to open cross-origin websockets." env:"TH_ALLOWED_ORIGINS"`
	PingInterval    time.Duration `help:"Interval between heartbeat pings." default:"30s" env:"TH_PING_INTERVAL"`
	WriteTimeout    time.Duration `help:"Deadline for a single write or ping." default:"5s" env:"TH_WRITE_TIMEOUT"`
	OutboxSize      int           `help:"Messages buffered per connection before deliveries are dropped." default:"32" env:"TH_OUTBOX_SIZE"`
	MaxMessageBytes int64         `help:"Largest inbound message accepted." default:"4096" env:"TH_MAX_MESSAGE_BYTES"`
}

// Config is the kong grammar for the server binary.
type Config struct {
	Addr            string          `help:"Listen address." default:":8080" env:"TH_ADDR"`
	ShutdownTimeout time.Duration   `help:"Grace period for in-flight requests on shutdown." default:"10s" env:"TH_SHUTDOWN_TIMEOUT"`
	Log             LoggingConfig   `embed:"" prefix:"log-"`
	WS              WebSocketConfig `embed:""`
}

// Validate reports every invalid setting at once. Kong calls it after
// parsing.
func (c Config) Validate() error {
	var err error
	if c.Addr == "" {
		err = multierr.Append(err, errors.New("addr must not be empty"))
	}
	if c.ShutdownTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("shutdown-timeout must be positive, got %s", c.ShutdownTimeout))
	}
	err = multierr.Append(err, validateLogging(c.Log))
	err = multierr.Append(err, validateWebSocket(c.WS))
	return err
}

func validateLogging(l LoggingConfig) error {
	var err error
	if _, perr := zapcore.ParseLevel(l.Level); perr != nil || l.Level == "" {
		err = multierr.Append(err, fmt.Errorf("log-level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	if l.Format != "json" && l.Format != "console" {
		err = multierr.Append(err, fmt.Errorf("log-format must be one of [json, console], got %q", l.Format))
	}
	return err
}

func validateWebSocket(w WebSocketConfig) error {
	var err error
	if w.PingInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("ping-interval must be positive, got %s", w.PingInterval))
	}
	if w.WriteTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("write-timeout must be positive, got %s", w.WriteTimeout))
	}
	if w.OutboxSize < 1 {
		err = multierr.Append(err, fmt.Errorf("outbox-size must be >= 1, got %d", w.OutboxSize))
	}
	if w.MaxMessageBytes < 64 {
		err = multierr.Append(err, fmt.Errorf("max-message-bytes must be >= 64, got %d", w.MaxMessageBytes))
	}
	return err
}

// LoadEnvFiles exports the variables in files without overriding ones
// already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}
