package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the agent service.
type Config struct {
	HTTPPort       int
	SQLiteDSN      string
	EngineEndpoint string
	EngineModel    string
	PollInterval   time.Duration
	PollTimeout    time.Duration
	MaxToolRounds  int
	SeedDemoData   bool
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields while validating the
// required engine endpoint and reporting all missing or malformed entries
// together instead of failing on the first one.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:agent.db?_foreign_keys=on",
		EngineModel:   "gpt-4o",
		PollInterval:  time.Second,
		PollTimeout:   30 * time.Second,
		MaxToolRounds: 10,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("AGENT_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "AGENT_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("AGENT_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if endpoint := strings.TrimSpace(os.Getenv("AGENT_ENGINE_ENDPOINT")); endpoint == "" {
		missing = append(missing, "AGENT_ENGINE_ENDPOINT")
	} else {
		cfg.EngineEndpoint = endpoint
	}

	if model := strings.TrimSpace(os.Getenv("AGENT_ENGINE_MODEL")); model != "" {
		cfg.EngineModel = model
	}

	if intervalValue := strings.TrimSpace(os.Getenv("AGENT_POLL_INTERVAL")); intervalValue != "" {
		interval, err := time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "AGENT_POLL_INTERVAL")
		} else {
			cfg.PollInterval = interval
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("AGENT_POLL_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "AGENT_POLL_TIMEOUT")
		} else {
			cfg.PollTimeout = timeout
		}
	}

	if roundsValue := strings.TrimSpace(os.Getenv("AGENT_MAX_TOOL_ROUNDS")); roundsValue != "" {
		rounds, err := strconv.Atoi(roundsValue)
		if err != nil || rounds <= 0 {
			invalid = append(invalid, "AGENT_MAX_TOOL_ROUNDS")
		} else {
			cfg.MaxToolRounds = rounds
		}
	}

	if seedValue := strings.TrimSpace(os.Getenv("AGENT_SEED_DEMO_DATA")); seedValue != "" {
		seed, err := strconv.ParseBool(seedValue)
		if err != nil {
			invalid = append(invalid, "AGENT_SEED_DEMO_DATA")
		} else {
			cfg.SeedDemoData = seed
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
