// Package config loads cdpctl settings from a TOML or YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvEndpoint   = "CDPCTL_ENDPOINT"
	EnvTarget     = "CDPCTL_TARGET"
	EnvTimeout    = "CDPCTL_TIMEOUT"
	EnvHeartbeat  = "CDPCTL_HEARTBEAT"
	EnvLogLevel   = "CDPCTL_LOG_LEVEL"
	EnvLogFormat  = "CDPCTL_LOG_FORMAT"
	EnvLogNoColor = "CDPCTL_LOG_NOCOLOR"
	EnvRateLimit  = "CDPCTL_RATE_LIMIT"
	EnvRateBurst  = "CDPCTL_RATE_BURST"
)

// Log formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Canonical log level names.
const (
	LevelTrace = "trace"
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelOff   = "off"
)

var levelNames = map[string]string{
	"trace":       LevelTrace,
	"diagnostics": LevelTrace,
	"debug":       LevelDebug,
	"info":        LevelInfo,
	"warn":        LevelWarn,
	"warning":     LevelWarn,
	"error":       LevelError,
	"off":         LevelOff,
	"none":        LevelOff,
	"disabled":    LevelOff,
}

// LogLevel returns the canonical name for a level or one of its aliases, ignoring
// case and surrounding space. Unknown names return false.
func LogLevel(raw string) (string, bool) {
	name, ok := levelNames[strings.ToLower(strings.TrimSpace(raw))]
	return name, ok
}

// Config holds all cdpctl settings.
type Config struct {
	// Endpoint is a websocket URL or an http://host:port discovery endpoint.
	Endpoint string
	// Target selects "browser" or "page" when Endpoint needs discovery.
	Target  string
	Timeout time.Duration
	// Heartbeat is the interval between liveness probes on long-lived connections.
	// Zero disables probing.
	Heartbeat time.Duration
	Log       LogConfig
	RateLimit RateLimitConfig
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level   string
	Format  string
	NoColor bool
}

// RateLimitConfig throttles outgoing commands. PerSecond 0 disables it.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Endpoint: "http://127.0.0.1:9222",
		Target:   "browser",
		Timeout:  30 * time.Second,
		Log: LogConfig{
			Level:  LevelWarn,
			Format: FormatAuto,
		},
		RateLimit: RateLimitConfig{Burst: 1},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cdpctl", "config.toml")
}

type fileConfig struct {
	Endpoint  *string `toml:"endpoint" yaml:"endpoint"`
	Target    *string `toml:"target" yaml:"target"`
	Timeout   *string `toml:"timeout" yaml:"timeout"`
	Heartbeat *string `toml:"heartbeat" yaml:"heartbeat"`
	Log       *struct {
		Level   *string `toml:"level" yaml:"level"`
		Format  *string `toml:"format" yaml:"format"`
		NoColor *bool   `toml:"no_color" yaml:"no_color"`
	} `toml:"log" yaml:"log"`
	RateLimit *struct {
		PerSecond *float64 `toml:"per_second" yaml:"per_second"`
		Burst     *int     `toml:"burst" yaml:"burst"`
	} `toml:"rate_limit" yaml:"rate_limit"`
}

// Load reads path over the defaults. The format is chosen by extension: .yaml and
// .yml are YAML, anything else is TOML. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
		}
	}

	if err := raw.apply(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (raw *fileConfig) apply(cfg *Config) error {
	if raw.Endpoint != nil {
		cfg.Endpoint = strings.TrimSpace(*raw.Endpoint)
	}
	if raw.Target != nil {
		cfg.Target = strings.TrimSpace(*raw.Target)
	}
	if raw.Timeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if raw.Heartbeat != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*raw.Heartbeat))
		if err != nil {
			return fmt.Errorf("parse heartbeat: %w", err)
		}
		cfg.Heartbeat = d
	}
	if raw.Log != nil {
		if raw.Log.Level != nil {
			cfg.Log.Level = strings.TrimSpace(*raw.Log.Level)
		}
		if raw.Log.Format != nil {
			cfg.Log.Format = strings.TrimSpace(*raw.Log.Format)
		}
		if raw.Log.NoColor != nil {
			cfg.Log.NoColor = *raw.Log.NoColor
		}
	}
	if raw.RateLimit != nil {
		if raw.RateLimit.PerSecond != nil {
			cfg.RateLimit.PerSecond = *raw.RateLimit.PerSecond
		}
		if raw.RateLimit.Burst != nil {
			cfg.RateLimit.Burst = *raw.RateLimit.Burst
		}
	}
	return nil
}

// ApplyEnv overrides cfg from environment variables found by lookup (os.LookupEnv in
// production). Empty values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvEndpoint); ok {
		cfg.Endpoint = v
	}
	if v, ok := get(EnvTarget); ok {
		cfg.Target = v
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v, ok := get(EnvHeartbeat); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeartbeat, err)
		}
		cfg.Heartbeat = d
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.Log.Format = v
	}
	if v, ok := get(EnvLogNoColor); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogNoColor, err)
		}
		cfg.Log.NoColor = b
	}
	if _, ok := get("NO_COLOR"); ok {
		cfg.Log.NoColor = true
	}
	if v, ok := get(EnvRateLimit); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}
		cfg.RateLimit.PerSecond = f
	}
	if v, ok := get(EnvRateBurst); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateBurst, err)
		}
		cfg.RateLimit.Burst = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	switch c.Target {
	case "browser", "page":
	default:
		return fmt.Errorf("target must be browser or page, got %q", c.Target)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %s", c.Heartbeat)
	}
	if _, ok := LogLevel(c.Log.Level); !ok {
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error or off, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case FormatAuto, FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("log format must be auto, console or json, got %q", c.Log.Format)
	}
	if c.RateLimit.PerSecond < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit.PerSecond)
	}
	if c.RateLimit.PerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", c.RateLimit.Burst)
	}
	return nil
}
