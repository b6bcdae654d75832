// Package config loads and validates the TOML configuration that names the
// external tools, tuning values, and directories the pipeline uses. Defaults
// are complete: vpipe runs without a config file at all.
package config
