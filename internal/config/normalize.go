package config

import "strings"

// normalize expands paths and trims string fields so validation and
// downstream consumers see canonical values.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)

	c.MusicBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.BaseURL), "/")
	c.MusicBrainz.UserAgent = strings.TrimSpace(c.MusicBrainz.UserAgent)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	def := Default()
	if c.MusicBrainz.RequestsPerSecond <= 0 {
		c.MusicBrainz.RequestsPerSecond = def.MusicBrainz.RequestsPerSecond
	}
	if c.MusicBrainz.MaxRetries <= 0 {
		c.MusicBrainz.MaxRetries = def.MusicBrainz.MaxRetries
	}
	if c.Analysis.BatchSize <= 0 {
		c.Analysis.BatchSize = def.Analysis.BatchSize
	}
	if c.Analysis.CheckpointInterval <= 0 {
		c.Analysis.CheckpointInterval = def.Analysis.CheckpointInterval
	}
	if c.Analysis.ReanalyzeAfterDays < 0 {
		c.Analysis.ReanalyzeAfterDays = def.Analysis.ReanalyzeAfterDays
	}
	if c.Analysis.CacheTTLHours <= 0 {
		c.Analysis.CacheTTLHours = def.Analysis.CacheTTLHours
	}
	if c.Analysis.MaxInFlight <= 0 {
		c.Analysis.MaxInFlight = def.Analysis.MaxInFlight
	}
	if c.Analysis.RequestTimeout <= 0 {
		c.Analysis.RequestTimeout = def.Analysis.RequestTimeout
	}
	return nil
}
