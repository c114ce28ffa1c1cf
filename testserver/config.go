package testserver

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	EnvAddr            = "CONTRACTSERVER_ADDR"
	EnvRequestTimeout  = "CONTRACTSERVER_REQUEST_TIMEOUT"
	EnvShutdownTimeout = "CONTRACTSERVER_SHUTDOWN_TIMEOUT"
	EnvValidate        = "CONTRACTSERVER_VALIDATE"
	EnvLogLevel        = "CONTRACTSERVER_LOG_LEVEL"
	EnvLogFormat       = "CONTRACTSERVER_LOG_FORMAT"
)

// DefaultAddr binds an ephemeral loopback port.
const DefaultAddr = "127.0.0.1:0"

// Config holds the settings a server pipeline can take from a file or the
// environment. Durations use time.ParseDuration syntax.
type Config struct {
	Addr            string        `toml:"addr"`
	RequestTimeout  string        `toml:"request_timeout"`
	ShutdownTimeout string        `toml:"shutdown_timeout"`
	Validate        *bool         `toml:"validate"`
	Info            bool          `toml:"info"`
	Logging         LoggingConfig `toml:"logging"`
}

// LoggingConfig selects the level and format of the pipeline logger.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
}

// LogLevel is one of debug, info, warn or error.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat is text or json.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LoadConfig reads a TOML config file. Call Finalize before use.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// RequestTimeoutDuration returns the per-request timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// ShutdownTimeoutDuration returns the graceful shutdown timeout.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// ValidateRequests reports whether requests are validated against the contract.
func (c *Config) ValidateRequests() bool {
	return c.Validate == nil || *c.Validate
}

// NewLogger builds a logger writing to w.
func (c *LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: c.Level.ToSlogLevel(),
	}

	var handler slog.Handler
	if c.Format == LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ToSlogLevel converts the level, defaulting to info.
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) loadDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "30s"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "5s"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		c.RequestTimeout = v
	}
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvValidate); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvValidate, err)
		}
		c.Validate = &enabled
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = LogLevel(strings.ToLower(v))
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = LogFormat(strings.ToLower(v))
	}
	return nil
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	switch c.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	return nil
}
