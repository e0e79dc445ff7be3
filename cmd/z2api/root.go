package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "z2api",
	Short: "Z2API - OpenAI-compatible proxy over a Z.AI credential pool",
	Long: `Z2API is an OpenAI-compatible chat proxy backed by a pool of Z.AI
credentials.

It accepts chat-completion requests, forwards them upstream using a rotating
credential from the pool, and manages the pool's lifecycle:
  - Round-robin credential rotation with failure skipping
  - Background recovery of failed credentials (probe, refresh, evict)
  - Scheduled and on-demand batch token refresh
  - Optional persistence of the credential list (dotenv file or SQLite)
  - Admin API for listing, replacing, testing, and refreshing credentials`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
