package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"lacuna/internal/config"
	"lacuna/internal/library"
)

// runCLI executes the root command in-process and captures its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeTestConfig materializes a config file pointing at temp dirs and
// returns its path plus the parsed config.
func writeTestConfig(t *testing.T) (string, *config.Config) {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.TMDB.APIKey = "test"

	raw, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("toml.Marshal: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, &cfg
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q does not contain %q", output, want)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite must refuse.
	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init succeeded without --overwrite")
	}
}

func TestSignalRequestsCooperativeCancel(t *testing.T) {
	sig := make(chan os.Signal, 2)
	cancelled := make(chan struct{})
	exited := make(chan struct{})
	go cancelOnSignal(sig, func() { close(cancelled) }, func() { close(exited) })

	sig <- os.Interrupt
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("first signal did not request cancellation")
	}
	select {
	case <-exited:
		t.Fatal("first signal must not exit the process")
	default:
	}

	sig <- os.Interrupt
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("second signal did not force exit")
	}
}

func TestConfigShowRedactsCredentials(t *testing.T) {
	path, _ := writeTestConfig(t)

	out, err := runCLI(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "(redacted)")
	if strings.Contains(out, "api_key = 'test'") || strings.Contains(out, `api_key = "test"`) {
		t.Fatal("config show printed the raw api key")
	}
}

func TestReportShowsStoredRecords(t *testing.T) {
	configPath, cfg := writeTestConfig(t)

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	record := &library.CompletenessRecord{
		Domain:     library.DomainSeries,
		UnitKey:    "tmdb:990",
		UnitTitle:  "Stellar Drift",
		Scope:      "all",
		TotalCount: 20,
		OwnedCount: 2,
		Missing: []library.MissingItem{
			{Season: 2, Episode: 1, Title: "Opening"},
		},
		Percentage: 10,
		Status:     library.StatusIncomplete,
	}
	if err := store.UpsertRecord(context.Background(), record); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("store.Close: %v", err)
	}

	out, err := runCLI(t, "report", "series", "--missing", "--config", configPath)
	if err != nil {
		t.Fatalf("report series: %v", err)
	}
	requireContains(t, out, "Stellar Drift")
	requireContains(t, out, "10%")
	requireContains(t, out, "S02E01")
}

func TestResetDeletesDomainRecords(t *testing.T) {
	configPath, cfg := writeTestConfig(t)

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	record := &library.CompletenessRecord{
		Domain:    library.DomainSeries,
		UnitKey:   "tmdb:990",
		UnitTitle: "Stellar Drift",
		Scope:     "all",
		Status:    library.StatusIncomplete,
	}
	if err := store.UpsertRecord(context.Background(), record); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("store.Close: %v", err)
	}

	out, err := runCLI(t, "reset", "series", "--config", configPath)
	if err != nil {
		t.Fatalf("reset series: %v", err)
	}
	requireContains(t, out, "Deleted 1 series record(s)")

	out, err = runCLI(t, "report", "series", "--config", configPath)
	if err != nil {
		t.Fatalf("report series: %v", err)
	}
	requireContains(t, out, "No records")
}

func TestReportEmptyStore(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCLI(t, "report", "collections", "--config", configPath)
	if err != nil {
		t.Fatalf("report collections: %v", err)
	}
	requireContains(t, out, "No records")
}

func TestStatsRendersTable(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCLI(t, "stats", "--config", configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Records")
	requireContains(t, out, "Average completeness")
}
