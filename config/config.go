// Package config loads the proxy configuration from a YAML file, with
// environment variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ahump20/espn-fantasy-proxy/espn"
)

// Config is the central configuration struct.
type Config struct {
	Listen    string          `yaml:"listen"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// UpstreamConfig holds upstream provider settings.
type UpstreamConfig struct {
	FantasyBaseURL    string   `yaml:"fantasy_base_url"`
	ScoreboardBaseURL string   `yaml:"scoreboard_base_url"`
	Timeout           Duration `yaml:"timeout"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	// TTL is the freshness window applied to every cached route.
	TTL Duration `yaml:"ttl"`

	// MaxTTL clamps per-route overrides.
	MaxTTL Duration `yaml:"max_ttl"`

	// ScopeCredentials keys entries by caller credentials so private
	// payloads are never replayed across callers. Off by default,
	// matching the upstream-sharing behavior the dashboard expects.
	ScopeCredentials bool `yaml:"scope_credentials"`

	// WarnEntries is the store size past which readiness degrades.
	WarnEntries int `yaml:"warn_entries"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// TelemetryConfig holds exporter settings.
type TelemetryConfig struct {
	TracingEnabled   bool    `yaml:"tracing_enabled"`
	TracingExporter  string  `yaml:"tracing_exporter"`
	TracingSamplePct float64 `yaml:"tracing_sample_pct"`
	MetricsEnabled   bool    `yaml:"metrics_enabled"`
	MetricsExporter  string  `yaml:"metrics_exporter"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "10m".
type Duration time.Duration

// UnmarshalYAML decodes a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":3000",
		Upstream: UpstreamConfig{
			FantasyBaseURL:    espn.DefaultFantasyBaseURL,
			ScoreboardBaseURL: espn.DefaultScoreboardBaseURL,
			Timeout:           Duration(30 * time.Second),
		},
		Cache: CacheConfig{
			TTL:         Duration(10 * time.Minute),
			MaxTTL:      Duration(time.Hour),
			WarnEntries: 10000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled:  true,
			MetricsExporter: "prometheus",
			TracingExporter: "none",
		},
	}
}

// LoadFile loads configuration from a YAML file on top of the defaults.
// ${VAR} references in the file are expanded from the environment before
// decoding and error when the variable is unset.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded, err := expandEnvStrict(string(data))
	if err != nil {
		return nil, fmt.Errorf("config: expand %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv applies environment variable overrides to the config.
func FromEnv(cfg *Config) {
	if v := os.Getenv("FANTASY_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("FANTASY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FANTASY_UPSTREAM_FANTASY_URL"); v != "" {
		cfg.Upstream.FantasyBaseURL = v
	}
	if v := os.Getenv("FANTASY_UPSTREAM_SCOREBOARD_URL"); v != "" {
		cfg.Upstream.ScoreboardBaseURL = v
	}
	if v := os.Getenv("FANTASY_UPSTREAM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("FANTASY_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = Duration(d)
		}
	}
	if v := os.Getenv("FANTASY_CACHE_SCOPE_CREDENTIALS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.ScopeCredentials = b
		}
	}
	if v := os.Getenv("FANTASY_METRICS_EXPORTER"); v != "" {
		cfg.Telemetry.MetricsExporter = v
	}
	if v := os.Getenv("FANTASY_TRACING_EXPORTER"); v != "" {
		cfg.Telemetry.TracingExporter = v
		cfg.Telemetry.TracingEnabled = v != "" && v != "none"
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.Upstream.FantasyBaseURL == "" || c.Upstream.ScoreboardBaseURL == "" {
		return fmt.Errorf("config: upstream base URLs are required")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: cache ttl must not be negative")
	}
	return nil
}
