// Package config loads, normalizes, and validates the TOML configuration
// that drives the completeness engine and its catalog clients.
package config
