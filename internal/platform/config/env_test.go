package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port    int           `env:"TEST_PORT" envDefault:"123"`
	Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"15s"`
	Hosts   []string      `env:"TEST_HOSTS" envSeparator:","`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("expected default timeout 15s, got %s", cfg.Timeout)
	}
	if len(cfg.Hosts) != 0 {
		t.Fatalf("expected no hosts, got %v", cfg.Hosts)
	}
}

func TestParseEnvReadsPrefixedNames(t *testing.T) {
	t.Setenv("DUNGEONKIT_TEST_PORT", "8000")
	t.Setenv("DUNGEONKIT_TEST_HOSTS", "tavern.local,keep.local")
	t.Setenv("TEST_TIMEOUT", "1m")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 8000 {
		t.Fatalf("expected port 8000, got %d", cfg.Port)
	}
	if len(cfg.Hosts) != 2 || cfg.Hosts[1] != "keep.local" {
		t.Fatalf("expected two hosts, got %v", cfg.Hosts)
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("expected unprefixed variable to be ignored, got %s", cfg.Timeout)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("DUNGEONKIT_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
