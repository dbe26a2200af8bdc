package completeness

// Options narrows and tunes a single analysis run. The zero value
// analyzes every provider and library with the configured defaults.
type Options struct {
	// Provider restricts analysis to items from one provider. When set,
	// records are stored under that provider's scope and cross-provider
	// deduplication defaults off.
	Provider string

	// Library restricts analysis to one named library.
	Library string

	// Force reanalyzes units even when a fresh record exists.
	Force bool

	// Deduplicate overrides the cross-provider duplicate collapse.
	// Defaults to on for whole-library runs and off for single-provider
	// runs, where a second provider's copies are out of frame anyway.
	Deduplicate *bool

	// FilterVinylOnly overrides the configured vinyl filter: release
	// groups issued only on vinyl are left out of discography totals.
	FilterVinylOnly *bool

	// TrackLevel overrides the configured per-album track analysis.
	TrackLevel *bool

	// Progress, when set, is invoked before each unit is processed.
	Progress ProgressFunc
}

// Scope returns the record scope key for this run.
func (o Options) Scope() string {
	if o.Provider != "" {
		return o.Provider
	}
	return "all"
}

func (o Options) deduplicate() bool {
	if o.Deduplicate != nil {
		return *o.Deduplicate
	}
	return o.Provider == ""
}

// Phase names reported through ProgressFunc.
const (
	PhaseScanning = "scanning"
	PhaseFetching = "fetching"
	PhaseComplete = "complete"
)

// Progress is one progress notification, emitted before each unit is
// processed. Skipped is the number of units skipped so far.
type Progress struct {
	Phase       string
	Current     int
	Total       int
	CurrentUnit string
	Skipped     int
}

// ProgressFunc receives progress notifications. It is called from the
// goroutine driving the run, never concurrently.
type ProgressFunc func(Progress)

// Summary reports how an analysis run ended. Completed is false when
// the run was cancelled before reaching the end of its unit list.
type Summary struct {
	Completed bool
	Analyzed  int
	Skipped   int
	Failed    int
}

// Processed returns the number of units the run handled.
func (s Summary) Processed() int {
	return s.Analyzed + s.Skipped + s.Failed
}
