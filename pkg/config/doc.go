// Package config defines the Z2API configuration model and loading logic.
//
// Configuration is loaded from a YAML file, merged with defaults, overridden
// by Z2API_* environment variables, and validated before use. A package
// singleton holds the loaded configuration for the CLI entry points; library
// code should receive explicit *Config values instead of reading the
// singleton.
package config
