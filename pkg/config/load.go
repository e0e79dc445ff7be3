package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = true
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// Z2API_* environment variable overrides. Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies Z2API_SECTION_FIELD environment overrides.
func applyEnvOverrides(cfg *Config) {
	// Server
	setString(&cfg.Server.ListenAddress, "Z2API_SERVER_LISTEN_ADDRESS")
	setDuration(&cfg.Server.ReadTimeout, "Z2API_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "Z2API_SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.IdleTimeout, "Z2API_SERVER_IDLE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "Z2API_SERVER_SHUTDOWN_TIMEOUT")
	setInt(&cfg.Server.MaxHeaderBytes, "Z2API_SERVER_MAX_HEADER_BYTES")

	// Upstream
	setString(&cfg.Upstream.ChatURL, "Z2API_UPSTREAM_CHAT_URL")
	setString(&cfg.Upstream.SignInURL, "Z2API_UPSTREAM_SIGNIN_URL")
	setString(&cfg.Upstream.Model, "Z2API_UPSTREAM_MODEL")
	setDuration(&cfg.Upstream.Timeout, "Z2API_UPSTREAM_TIMEOUT")
	setDuration(&cfg.Upstream.ProbeTimeout, "Z2API_UPSTREAM_PROBE_TIMEOUT")
	setDuration(&cfg.Upstream.SignInTimeout, "Z2API_UPSTREAM_SIGNIN_TIMEOUT")

	// Pool. The credential list is the one multi-valued override: a
	// comma-joined list, matching the persistence mirror format.
	if val := os.Getenv("Z2API_POOL_CREDENTIALS"); val != "" {
		var creds []string
		for _, c := range strings.Split(val, ",") {
			if c = strings.TrimSpace(c); c != "" {
				creds = append(creds, c)
			}
		}
		if len(creds) > 0 {
			cfg.Pool.Credentials = creds
		}
	}
	setDuration(&cfg.Pool.RecoveryInterval, "Z2API_POOL_RECOVERY_INTERVAL")
	setDuration(&cfg.Pool.RecoveryRetryInterval, "Z2API_POOL_RECOVERY_RETRY_INTERVAL")
	setString(&cfg.Pool.RefreshSchedule, "Z2API_POOL_REFRESH_SCHEDULE")
	setInt(&cfg.Pool.RefreshConcurrency, "Z2API_POOL_REFRESH_CONCURRENCY")

	// Store
	setString(&cfg.Store.Backend, "Z2API_STORE_BACKEND")
	setString(&cfg.Store.EnvFile.Path, "Z2API_STORE_ENVFILE_PATH")
	setString(&cfg.Store.EnvFile.Key, "Z2API_STORE_ENVFILE_KEY")
	setBool(&cfg.Store.EnvFile.Watch, "Z2API_STORE_ENVFILE_WATCH")
	setString(&cfg.Store.SQLite.Path, "Z2API_STORE_SQLITE_PATH")

	// Auth
	setString(&cfg.Auth.APIKey, "Z2API_AUTH_API_KEY")

	// Telemetry
	setString(&cfg.Telemetry.Logging.Level, "Z2API_TELEMETRY_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "Z2API_TELEMETRY_LOGGING_FORMAT")
	setBool(&cfg.Telemetry.Metrics.Enabled, "Z2API_TELEMETRY_METRICS_ENABLED")
	setString(&cfg.Telemetry.Metrics.Path, "Z2API_TELEMETRY_METRICS_PATH")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
