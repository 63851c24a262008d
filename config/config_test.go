package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":3000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Cache.TTL.Std() != 10*time.Minute {
		t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL.Std())
	}
	if cfg.Cache.ScopeCredentials {
		t.Error("credential scoping should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: ":8080"
upstream:
  timeout: 5s
cache:
  ttl: 2m
  scope_credentials: true
log:
  level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Upstream.Timeout.Std() != 5*time.Second {
		t.Errorf("Upstream.Timeout = %v", cfg.Upstream.Timeout.Std())
	}
	if cfg.Cache.TTL.Std() != 2*time.Minute {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL.Std())
	}
	if !cfg.Cache.ScopeCredentials {
		t.Error("scope_credentials should be true")
	}
	// Unset fields keep defaults.
	if cfg.Cache.MaxTTL.Std() != time.Hour {
		t.Errorf("Cache.MaxTTL = %v, want default 1h", cfg.Cache.MaxTTL.Std())
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_FANTASY_PORT", ":9999")
	path := writeConfig(t, "listen: \"${TEST_FANTASY_PORT}\"\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("Listen = %q, want expanded value", cfg.Listen)
	}
}

func TestLoadFile_MissingEnvErrors(t *testing.T) {
	path := writeConfig(t, "listen: \"${DEFINITELY_NOT_SET_FANTASY}\"\n")
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_FANTASY") {
		t.Errorf("expected missing-variable error, got %v", err)
	}
}

func TestLoadFile_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "cache:\n  ttl: soon\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FANTASY_LISTEN", ":4000")
	t.Setenv("FANTASY_CACHE_TTL", "90s")
	t.Setenv("FANTASY_CACHE_SCOPE_CREDENTIALS", "true")
	t.Setenv("FANTASY_TRACING_EXPORTER", "stdout")

	cfg := Default()
	FromEnv(cfg)

	if cfg.Listen != ":4000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Cache.TTL.Std() != 90*time.Second {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL.Std())
	}
	if !cfg.Cache.ScopeCredentials {
		t.Error("scope credentials override not applied")
	}
	if !cfg.Telemetry.TracingEnabled || cfg.Telemetry.TracingExporter != "stdout" {
		t.Errorf("tracing override not applied: %+v", cfg.Telemetry)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Listen = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty listen address should fail validation")
	}

	cfg = Default()
	cfg.Upstream.FantasyBaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty upstream URL should fail validation")
	}
}
