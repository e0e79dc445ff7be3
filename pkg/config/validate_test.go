package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return NewDefaultConfig()
}

func TestValidateDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "bad listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "no-port" },
			wantField: "server.listen_address",
		},
		{
			name:      "relative chat url",
			mutate:    func(c *Config) { c.Upstream.ChatURL = "/api/chat" },
			wantField: "upstream.chat_url",
		},
		{
			name:      "unsupported signin scheme",
			mutate:    func(c *Config) { c.Upstream.SignInURL = "ftp://chat.z.ai/signin" },
			wantField: "upstream.signin_url",
		},
		{
			name:      "empty model",
			mutate:    func(c *Config) { c.Upstream.Model = "" },
			wantField: "upstream.model",
		},
		{
			name:      "zero recovery interval",
			mutate:    func(c *Config) { c.Pool.RecoveryInterval = 0 },
			wantField: "pool.recovery_interval",
		},
		{
			name:      "negative refresh concurrency",
			mutate:    func(c *Config) { c.Pool.RefreshConcurrency = -1 },
			wantField: "pool.refresh_concurrency",
		},
		{
			name:      "bad cron expression",
			mutate:    func(c *Config) { c.Pool.RefreshSchedule = "every day at noon" },
			wantField: "pool.refresh_schedule",
		},
		{
			name:      "blank credential",
			mutate:    func(c *Config) { c.Pool.Credentials = []string{"tok", "  "} },
			wantField: "pool.credentials[1]",
		},
		{
			name:      "unknown store backend",
			mutate:    func(c *Config) { c.Store.Backend = "postgres" },
			wantField: "store.backend",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "loud" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "metrics path without slash",
			mutate:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q should name field %s", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddress = "bad"
	cfg.Upstream.Model = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 2 {
		t.Errorf("expected at least 2 errors, got %d", len(verr.Errors))
	}
}

func TestValidateValidCronSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Pool.RefreshSchedule = "0 3 * * *"
	if err := Validate(cfg); err != nil {
		t.Errorf("valid cron schedule rejected: %v", err)
	}
}
