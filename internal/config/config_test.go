package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"lacuna/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for absent config")
	}
	if cfg.Analysis.BatchSize != 5 {
		t.Fatalf("expected default batch size 5, got %d", cfg.Analysis.BatchSize)
	}
	if cfg.Analysis.ReanalyzeAfterDays != 7 {
		t.Fatalf("expected default freshness window 7, got %d", cfg.Analysis.ReanalyzeAfterDays)
	}
	if cfg.TMDB.BaseURL == "" || cfg.MusicBrainz.BaseURL == "" {
		t.Fatal("expected default catalog base URLs")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `"

[tmdb]
api_key = "secret"

[analysis]
batch_size = 3
reanalyze_after_days = 14
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected config file to be found")
	}
	if cfg.TMDB.APIKey != "secret" {
		t.Fatalf("expected api key override, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Analysis.BatchSize != 3 || cfg.Analysis.ReanalyzeAfterDays != 14 {
		t.Fatalf("unexpected analysis overrides: %+v", cfg.Analysis)
	}
}

func TestLoadRejectsOutOfRangeBatchSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[analysis]\nbatch_size = 50\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for batch_size=50")
	}
}

func TestValidateRequiresUserAgent(t *testing.T) {
	cfg := config.Default()
	cfg.MusicBrainz.UserAgent = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when musicbrainz user agent missing")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load cleanly, exists=%v err=%v", exists, err)
	}
}
