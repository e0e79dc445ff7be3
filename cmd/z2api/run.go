package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"z2api-hq/z2api/pkg/cli"
	"z2api-hq/z2api/pkg/config"
	"z2api-hq/z2api/pkg/credential"
	"z2api-hq/z2api/pkg/server"
	"z2api-hq/z2api/pkg/store"
	"z2api-hq/z2api/pkg/telemetry/logging"
	"z2api-hq/z2api/pkg/telemetry/metrics"
	"z2api-hq/z2api/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Z2API proxy server",
	Long: `Start the Z2API proxy server with the specified configuration.

The server listens on the configured address, relays chat-completion
requests upstream using the credential pool, and runs the pool's background
maintenance: the failed-credential recovery loop, the optional scheduled
batch refresh, and (for the envfile store) the external edit watcher.

Examples:
  # Start with default config
  z2api run

  # Start with custom config
  z2api run --config /etc/z2api/config.yaml

  # Override listen address
  z2api run --listen 0.0.0.0:8080

  # Validate config without starting server
  z2api run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Z2API v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := cli.SignalContext()
	defer cancel()

	// Metrics collector (optional)
	var collector *metrics.Collector
	var poolMetrics *metrics.PoolMetrics
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
		poolMetrics = collector.Pool
	}

	// Upstream client
	client := upstream.NewClient(cfg.Upstream)

	// Persistence store (optional)
	st, err := store.Open(cfg.Store)
	if err != nil {
		return cli.NewConfigError("store", fmt.Sprintf("failed to open store: %v", err))
	}
	if st != nil {
		defer st.Close()
		fmt.Printf("✓ Store opened (%s)\n", cfg.Store.Backend)
	}

	// Initial credential list: config wins, then the store's persisted list.
	storeKey := cfg.Store.EnvFile.Key
	raws := cfg.Pool.Credentials
	if len(raws) == 0 && st != nil {
		loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Second)
		value, err := st.GetValue(loadCtx, storeKey)
		loadCancel()
		if err != nil {
			logger.Warn("Failed to load credentials from store", "error", err)
		} else if value != "" {
			raws = splitCredentials(value)
		}
	}

	// Credential pool
	pool := credential.NewPool(raws, credential.Options{
		Logger:   logger,
		Client:   client,
		Store:    st,
		StoreKey: storeKey,
		Metrics:  poolMetrics,
	})
	fmt.Printf("✓ Credential pool initialized (%d entries)\n", pool.Len())

	// Background recovery of failed credentials
	recovery := credential.NewRecoveryLoop(pool, cfg.Pool.RecoveryInterval, cfg.Pool.RecoveryRetryInterval, logger)
	go recovery.Run(ctx)

	// Scheduled batch refresh (optional)
	scheduler := credential.NewRefreshScheduler(pool, cfg.Pool.RefreshSchedule, cfg.Pool.RefreshConcurrency, logger)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewConfigError("pool.refresh_schedule", err.Error())
	}
	defer scheduler.Stop()

	// Reload the pool when the env file is edited externally (optional)
	if cfg.Store.Backend == store.BackendEnvFile && cfg.Store.EnvFile.Watch {
		envStore, ok := st.(*store.EnvFileStore)
		if !ok {
			return cli.NewConfigError("store.envfile.watch", "watch requires the envfile backend")
		}
		watcher, err := store.NewEnvFileWatcher(envStore, storeKey, logger)
		if err != nil {
			return cli.NewConfigError("store.envfile.watch", fmt.Sprintf("failed to create watcher: %v", err))
		}
		go func() {
			if err := watcher.Watch(ctx, func(value string) {
				n := pool.ReplaceAll(splitCredentials(value))
				logger.Info("Credential pool reloaded from env file", "entries", n)
			}); err != nil {
				logger.Warn("Env file watcher stopped", "error", err)
			}
		}()
		fmt.Println("✓ Env file watcher started")
	}

	// HTTP server
	srv := server.NewServer(cfg, pool, client, collector, logger)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// splitCredentials parses a comma-joined credential list, dropping blanks.
func splitCredentials(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
