// Package testsupport provides shared fixtures for tests: temp-backed
// configs and seeded library stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"lacuna/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.TMDB.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.TMDB.APIKey = key
	}
}

// WithBatchSize overrides the analysis batch size on the test config.
func WithBatchSize(size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Analysis.BatchSize = size
	}
}

// WithCheckpointInterval overrides the checkpoint interval on the test config.
func WithCheckpointInterval(interval int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Analysis.CheckpointInterval = interval
	}
}
