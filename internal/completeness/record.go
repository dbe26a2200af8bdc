package completeness

import (
	"math"
	"time"
)

// percent computes a rounded ownership percentage clamped to [0, 100].
// An empty catalog counts as fully owned.
func percent(owned, total int) int {
	if total <= 0 {
		return 100
	}
	p := int(math.Round(float64(owned) / float64(total) * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// released reports whether a catalog date string names a date that has
// already passed. TMDB uses full dates; MusicBrainz may truncate to a
// month or a year, which parse as the period's first day. Missing or
// malformed dates count as unreleased so announced-but-unaired entries
// never show up as missing.
func released(date string, now time.Time) bool {
	if date == "" {
		return false
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, date); err == nil {
			return !t.After(now)
		}
	}
	return false
}
