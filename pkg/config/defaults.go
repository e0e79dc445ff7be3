package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 300 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Upstream defaults
	DefaultChatURL             = "https://chat.z.ai/api/chat/completions"
	DefaultSignInURL           = "https://chat.z.ai/api/v1/auths/signin"
	DefaultUpstreamModel       = "0727-360B-API"
	DefaultUpstreamTimeout     = 120 * time.Second
	DefaultProbeTimeout        = 10 * time.Second
	DefaultSignInTimeout       = 30 * time.Second
	DefaultMaxIdleConns        = 32
	DefaultMaxIdleConnsPerHost = 8
	DefaultIdleConnTimeout     = 90 * time.Second

	// Pool defaults
	DefaultRecoveryInterval      = 10 * time.Minute
	DefaultRecoveryRetryInterval = 5 * time.Minute
	DefaultRefreshConcurrency    = 20

	// Store defaults
	DefaultStoreBackend      = "none"
	DefaultEnvFilePath       = ".env"
	DefaultEnvFileKey        = "Z_AI_COOKIES"
	DefaultSQLitePath        = "data/z2api.db"
	DefaultSQLiteBusyTimeout = 5 * time.Second

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "z2api"
)

// ApplyDefaults fills in default values for any zero-valued configuration
// fields. It modifies the configuration in place.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Upstream
	if cfg.Upstream.ChatURL == "" {
		cfg.Upstream.ChatURL = DefaultChatURL
	}
	if cfg.Upstream.SignInURL == "" {
		cfg.Upstream.SignInURL = DefaultSignInURL
	}
	if cfg.Upstream.Model == "" {
		cfg.Upstream.Model = DefaultUpstreamModel
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.ProbeTimeout == 0 {
		cfg.Upstream.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Upstream.SignInTimeout == 0 {
		cfg.Upstream.SignInTimeout = DefaultSignInTimeout
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.Upstream.MaxIdleConnsPerHost == 0 {
		cfg.Upstream.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.Upstream.IdleConnTimeout == 0 {
		cfg.Upstream.IdleConnTimeout = DefaultIdleConnTimeout
	}

	// Pool
	if cfg.Pool.RecoveryInterval == 0 {
		cfg.Pool.RecoveryInterval = DefaultRecoveryInterval
	}
	if cfg.Pool.RecoveryRetryInterval == 0 {
		cfg.Pool.RecoveryRetryInterval = DefaultRecoveryRetryInterval
	}
	if cfg.Pool.RefreshConcurrency == 0 {
		cfg.Pool.RefreshConcurrency = DefaultRefreshConcurrency
	}

	// Store
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.EnvFile.Path == "" {
		cfg.Store.EnvFile.Path = DefaultEnvFilePath
	}
	if cfg.Store.EnvFile.Key == "" {
		cfg.Store.EnvFile.Key = DefaultEnvFileKey
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Store.SQLite.BusyTimeout == 0 {
		cfg.Store.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// NewDefaultConfig returns a configuration populated entirely with defaults.
// Metrics are enabled by default; ApplyDefaults cannot distinguish an
// explicit false from a zero value, so the flag is only set here.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}
