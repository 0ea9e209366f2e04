// Package config manages application configuration.
//
// Values are layered: defaults, then a YAML file, then YTTRANSCRIPT_*
// environment variables. Command-line flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"yttranscript/format"
	httpclient "yttranscript/http"
	"yttranscript/internal/logging"
	"yttranscript/internal/retry"
)

// envPrefix prefixes every environment variable read by Load.
const envPrefix = "YTTRANSCRIPT_"

// Config holds all application configuration.
type Config struct {
	// Retry settings
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	MaxJitter         time.Duration `yaml:"max_jitter"`

	// HTTP settings
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	UserAgent         string        `yaml:"user_agent"`
	AcceptLanguage    string        `yaml:"accept_language"`
	// Headers are sent with every request, e.g. a Cookie for a signed-in session.
	Headers map[string]string `yaml:"headers"`
	// HostRates overrides requests_per_second for exact host names.
	// A zero rate disables limiting for that host.
	HostRates map[string]float64 `yaml:"host_rates"`

	// APIKey switches the catalog to the YouTube Data API when set.
	APIKey string `yaml:"api_key"`

	// Output defaults
	DefaultFormat   string `yaml:"default_format"`
	DefaultLanguage string `yaml:"default_language"`

	// Observability
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsFile string `yaml:"metrics_file"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	logCfg := logging.DefaultConfig()
	return &Config{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		MaxJitter:         1 * time.Second,
		RequestTimeout:    30 * time.Second,
		RequestsPerSecond: 2.5,
		MaxBodyBytes:      httpclient.DefaultMaxBodyBytes,
		AcceptLanguage:    "en-US",
		DefaultFormat:     string(format.FormatPlain),
		LogLevel:          logCfg.Level,
		LogFormat:         logCfg.Format,
	}
}

// Load builds the configuration. An explicit path must exist; otherwise the
// search paths are tried in order and a missing file is not an error. It
// returns the file actually read, or "" if none.
func Load(explicitPath string) (*Config, string, error) {
	cfg := DefaultConfig()

	used, err := cfg.loadFromFile(explicitPath)
	if err != nil {
		return nil, "", err
	}

	if err := cfg.loadFromEnv(os.Getenv); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, used, nil
}

// SearchPaths returns the config file locations tried when none is given.
func SearchPaths() []string {
	paths := []string{"yttranscript.yaml"}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "yttranscript", "config.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "yttranscript", "config.yaml"))
	}
	return paths
}

// loadFromFile reads the first config file found.
func (c *Config) loadFromFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if err := c.readFile(explicitPath); err != nil {
			return "", err
		}
		return explicitPath, nil
	}

	for _, path := range SearchPaths() {
		err := c.readFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return path, nil
	}
	return "", nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv(getenv func(string) string) error {
	get := func(key string) string { return getenv(envPrefix + key) }

	if v := get("MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_ATTEMPTS: %w", envPrefix, err)
		}
		c.MaxAttempts = n
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"INITIAL_BACKOFF", &c.InitialBackoff},
		{"MAX_BACKOFF", &c.MaxBackoff},
		{"MAX_JITTER", &c.MaxJitter},
		{"REQUEST_TIMEOUT", &c.RequestTimeout},
	}
	for _, d := range durations {
		if v := get(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, d.key, err)
			}
			*d.dst = parsed
		}
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"BACKOFF_MULTIPLIER", &c.BackoffMultiplier},
		{"REQUESTS_PER_SECOND", &c.RequestsPerSecond},
	}
	for _, f := range floats {
		if v := get(f.key); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, f.key, err)
			}
			*f.dst = parsed
		}
	}
	if v := get("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_BODY_BYTES: %w", envPrefix, err)
		}
		c.MaxBodyBytes = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"USER_AGENT", &c.UserAgent},
		{"ACCEPT_LANGUAGE", &c.AcceptLanguage},
		{"API_KEY", &c.APIKey},
		{"DEFAULT_FORMAT", &c.DefaultFormat},
		{"DEFAULT_LANGUAGE", &c.DefaultLanguage},
		{"LOG_LEVEL", &c.LogLevel},
		{"LOG_FORMAT", &c.LogFormat},
		{"METRICS_FILE", &c.MetricsFile},
	}
	for _, s := range strs {
		if v := get(s.key); v != "" {
			*s.dst = v
		}
	}
	return nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff <= 0 {
		return fmt.Errorf("max_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be >= 1")
	}
	if c.MaxJitter < 0 {
		return fmt.Errorf("max_jitter must be non-negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative")
	}
	for host, rps := range c.HostRates {
		if rps < 0 {
			return fmt.Errorf("host_rates[%s] must be non-negative", host)
		}
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// RetryConfig returns the retry policy described by the configuration.
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
		Multiplier:     c.BackoffMultiplier,
		MaxJitter:      c.MaxJitter,
	}
}

// HTTPConfig returns the HTTP client settings described by the configuration.
// A zero requests_per_second disables client-side rate limiting.
func (c *Config) HTTPConfig() *httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.RequestTimeout
	hc.MaxBodyBytes = c.MaxBodyBytes
	if c.UserAgent != "" {
		hc.Session.UserAgent = c.UserAgent
	}
	if c.AcceptLanguage != "" {
		hc.Session.AcceptLanguage = c.AcceptLanguage
	}
	if c.RequestsPerSecond > 0 {
		hc.RateLimiter.YouTubeRPS = c.RequestsPerSecond
	} else {
		hc.RateLimiter.YouTubeRPS = -1
	}
	for host, rps := range c.HostRates {
		hc.RateLimiter.CustomRates[host] = rps
	}
	for k, v := range c.Headers {
		hc.Session.HeadersToAdd[k] = v
	}
	return hc
}

// LoggingConfig returns the logger settings described by the configuration.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}
