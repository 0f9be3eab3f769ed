package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AGENT_HTTP_PORT",
		"AGENT_SQLITE_DSN",
		"AGENT_ENGINE_ENDPOINT",
		"AGENT_ENGINE_MODEL",
		"AGENT_POLL_INTERVAL",
		"AGENT_POLL_TIMEOUT",
		"AGENT_MAX_TOOL_ROUNDS",
		"AGENT_SEED_DEMO_DATA",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults when only the endpoint is set", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AGENT_ENGINE_ENDPOINT", "http://localhost:9000")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.EngineEndpoint != "http://localhost:9000" {
			t.Fatalf("unexpected endpoint %q", cfg.EngineEndpoint)
		}
		if cfg.EngineModel != "gpt-4o" {
			t.Fatalf("unexpected model %q", cfg.EngineModel)
		}
		if cfg.PollInterval != time.Second || cfg.PollTimeout != 30*time.Second {
			t.Fatalf("unexpected poll settings %v / %v", cfg.PollInterval, cfg.PollTimeout)
		}
		if cfg.MaxToolRounds != 10 {
			t.Fatalf("unexpected tool round cap %d", cfg.MaxToolRounds)
		}
		if cfg.SeedDemoData {
			t.Fatalf("expected seeding off by default")
		}
	})

	t.Run("reads every override", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AGENT_HTTP_PORT", "9090")
		t.Setenv("AGENT_SQLITE_DSN", "file:custom.db")
		t.Setenv("AGENT_ENGINE_ENDPOINT", "http://engine.internal")
		t.Setenv("AGENT_ENGINE_MODEL", "gpt-4o-mini")
		t.Setenv("AGENT_POLL_INTERVAL", "250ms")
		t.Setenv("AGENT_POLL_TIMEOUT", "1m")
		t.Setenv("AGENT_MAX_TOOL_ROUNDS", "5")
		t.Setenv("AGENT_SEED_DEMO_DATA", "true")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.SQLiteDSN != "file:custom.db" {
			t.Fatalf("unexpected config %+v", cfg)
		}
		if cfg.PollInterval != 250*time.Millisecond || cfg.PollTimeout != time.Minute {
			t.Fatalf("unexpected poll settings %v / %v", cfg.PollInterval, cfg.PollTimeout)
		}
		if cfg.MaxToolRounds != 5 || !cfg.SeedDemoData {
			t.Fatalf("unexpected config %+v", cfg)
		}
	})

	t.Run("requires the engine endpoint", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error")
		}
		if !strings.Contains(err.Error(), "missing required environment variables") {
			t.Fatalf("unexpected error %v", err)
		}
		if !strings.Contains(err.Error(), "AGENT_ENGINE_ENDPOINT") {
			t.Fatalf("expected AGENT_ENGINE_ENDPOINT named, got %v", err)
		}
	})

	t.Run("reports every invalid value together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AGENT_ENGINE_ENDPOINT", "http://localhost:9000")
		t.Setenv("AGENT_HTTP_PORT", "not-a-port")
		t.Setenv("AGENT_POLL_INTERVAL", "-3s")
		t.Setenv("AGENT_MAX_TOOL_ROUNDS", "0")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error")
		}
		for _, name := range []string{"AGENT_HTTP_PORT", "AGENT_POLL_INTERVAL", "AGENT_MAX_TOOL_ROUNDS"} {
			if !strings.Contains(err.Error(), name) {
				t.Fatalf("expected %s named, got %v", name, err)
			}
		}
	})

	t.Run("rejects a malformed seed flag", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AGENT_ENGINE_ENDPOINT", "http://localhost:9000")
		t.Setenv("AGENT_SEED_DEMO_DATA", "maybe")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "AGENT_SEED_DEMO_DATA") {
			t.Fatalf("expected AGENT_SEED_DEMO_DATA named, got %v", err)
		}
	})
}
