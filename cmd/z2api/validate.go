package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"z2api-hq/z2api/pkg/cli"
	"z2api-hq/z2api/pkg/config"
	"z2api-hq/z2api/pkg/credential"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report validation errors without starting the server.

The configured credential list is parsed too, so malformed entries are
caught before startup.

Examples:
  # Validate the default config
  z2api validate

  # Validate a specific file
  z2api validate --config /etc/z2api/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	bad := 0
	for i, raw := range cfg.Pool.Credentials {
		if _, err := credential.ParseEntry(raw); err != nil {
			fmt.Printf("✗ credential %d: %v\n", i, err)
			bad++
		}
	}
	if bad > 0 {
		return cli.NewConfigError("pool.credentials", fmt.Sprintf("%d invalid entries", bad))
	}

	fmt.Printf("✓ Configuration valid (%s)\n", cfgFile)
	fmt.Printf("  listen address: %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  credentials:    %d\n", len(cfg.Pool.Credentials))
	fmt.Printf("  store backend:  %s\n", cfg.Store.Backend)
	if cfg.Pool.RefreshSchedule != "" {
		fmt.Printf("  refresh:        %q\n", cfg.Pool.RefreshSchedule)
	}
	return nil
}
