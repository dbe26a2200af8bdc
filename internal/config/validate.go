package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values the engine cannot run with.
// Catalog credentials are intentionally not required here; each analysis
// entry point verifies the credentials it needs before starting work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}

	if err := validateBaseURL("tmdb.base_url", c.TMDB.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("musicbrainz.base_url", c.MusicBrainz.BaseURL); err != nil {
		return err
	}
	if c.MusicBrainz.UserAgent == "" {
		return fmt.Errorf("musicbrainz.user_agent must be set")
	}

	if c.Analysis.BatchSize < 1 || c.Analysis.BatchSize > 10 {
		return fmt.Errorf("analysis.batch_size must be between 1 and 10, got %d", c.Analysis.BatchSize)
	}
	if c.Analysis.CheckpointInterval < 1 {
		return fmt.Errorf("analysis.checkpoint_interval must be at least 1, got %d", c.Analysis.CheckpointInterval)
	}
	if c.Analysis.MaxInFlight < 1 || c.Analysis.MaxInFlight > 10 {
		return fmt.Errorf("analysis.max_in_flight must be between 1 and 10, got %d", c.Analysis.MaxInFlight)
	}
	if c.MusicBrainz.RequestsPerSecond < 1 {
		return fmt.Errorf("musicbrainz.requests_per_second must be at least 1, got %d", c.MusicBrainz.RequestsPerSecond)
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	return nil
}

func validateBaseURL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, value)
	}
	return nil
}
