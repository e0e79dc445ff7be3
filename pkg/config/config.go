package config

import "time"

// Config is the root configuration structure for Z2API.
type Config struct {
	// Server contains HTTP server configuration: listen address, timeouts,
	// and connection limits.
	Server ServerConfig `yaml:"server"`

	// Upstream contains the Z.AI endpoint configuration used for chat
	// forwarding, health probing, and sign-in.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Pool contains the credential pool configuration: the initial
	// credential list and the recovery/refresh cadence.
	Pool PoolConfig `yaml:"pool"`

	// Store contains the optional persistence mirror for the credential
	// list. Its absence or failure never affects pool behaviour.
	Store StoreConfig `yaml:"store"`

	// Auth contains inbound authentication settings for the proxy itself.
	Auth AuthConfig `yaml:"auth"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port". Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Streaming responses run under this budget too.
	// Default: 300s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// UpstreamConfig contains configuration for the Z.AI upstream endpoints.
type UpstreamConfig struct {
	// ChatURL is the chat-completion endpoint.
	// Default: "https://chat.z.ai/api/chat/completions"
	ChatURL string `yaml:"chat_url"`

	// SignInURL is the authentication endpoint used for token refresh.
	// Default: "https://chat.z.ai/api/v1/auths/signin"
	SignInURL string `yaml:"signin_url"`

	// Model is the upstream model identifier sent in probe requests.
	// Default: "0727-360B-API"
	Model string `yaml:"model"`

	// Timeout is the request timeout for proxied chat calls.
	// Default: 120s
	Timeout time.Duration `yaml:"timeout"`

	// ProbeTimeout bounds a single health probe.
	// Default: 10s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// SignInTimeout bounds a single sign-in call.
	// Default: 30s
	SignInTimeout time.Duration `yaml:"signin_timeout"`

	// MaxIdleConns is the connection pool size.
	// Default: 32
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the per-host connection pool size.
	// Default: 8
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// PoolConfig contains configuration for the credential pool manager.
type PoolConfig struct {
	// Credentials is the initial credential list. Each element is either a
	// bare token or a composite "email----password----token" record.
	Credentials []string `yaml:"credentials"`

	// RecoveryInterval is the cadence of the background recovery loop that
	// re-probes failed credentials.
	// Default: 10m
	RecoveryInterval time.Duration `yaml:"recovery_interval"`

	// RecoveryRetryInterval is the shortened sleep used after a recovery
	// cycle fails unexpectedly.
	// Default: 5m
	RecoveryRetryInterval time.Duration `yaml:"recovery_retry_interval"`

	// RefreshSchedule is an optional cron expression for scheduled batch
	// token refresh (e.g. "0 3 * * *"). Empty disables the scheduler.
	RefreshSchedule string `yaml:"refresh_schedule"`

	// RefreshConcurrency bounds simultaneous sign-in calls during a batch
	// refresh.
	// Default: 20
	RefreshConcurrency int `yaml:"refresh_concurrency"`
}

// StoreConfig selects and configures the credential persistence mirror.
type StoreConfig struct {
	// Backend selects the store implementation.
	// Options: "none", "envfile", "sqlite". Default: "none"
	Backend string `yaml:"backend"`

	// EnvFile configures the dotenv-style backend.
	EnvFile EnvFileConfig `yaml:"envfile"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// EnvFileConfig configures the dotenv-style credential mirror.
type EnvFileConfig struct {
	// Path is the dotenv file location. Default: ".env"
	Path string `yaml:"path"`

	// Key is the variable name holding the comma-joined credential list.
	// Default: "Z_AI_COOKIES"
	Key string `yaml:"key"`

	// Watch reloads the credential list into the pool when the file is
	// edited externally.
	// Default: false
	Watch bool `yaml:"watch"`
}

// SQLiteConfig configures the SQLite credential mirror.
type SQLiteConfig struct {
	// Path is the database file location. Default: "data/z2api.db"
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout. Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuthConfig contains inbound authentication settings.
type AuthConfig struct {
	// APIKey, when set, is required as a bearer token on /v1 requests.
	// Empty disables inbound authentication.
	APIKey string `yaml:"api_key"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text"). Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records. Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls the /metrics endpoint. Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path. Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix. Default: "z2api"
	Namespace string `yaml:"namespace"`
}
