package config

// Default returns a configuration populated with the stock values.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/lacuna",
			LogDir:  "~/.local/share/lacuna/logs",
		},
		TMDB: TMDB{
			BaseURL:  "https://api.themoviedb.org/3",
			Language: "en-US",
		},
		MusicBrainz: MusicBrainz{
			BaseURL:           "https://musicbrainz.org/ws/2",
			UserAgent:         "lacuna/1.0 (https://github.com/lacuna/lacuna)",
			RequestsPerSecond: 1,
			MaxRetries:        4,
		},
		Analysis: Analysis{
			BatchSize:          5,
			CheckpointInterval: 25,
			ReanalyzeAfterDays: 7,
			CacheTTLHours:      24,
			MaxInFlight:        10,
			RequestTimeout:     30,
			FilterVinylOnly:    false,
			TrackLevel:         false,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
