package completeness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"lacuna/internal/catalog/musicbrainz"
	"lacuna/internal/catalog/tmdb"
	"lacuna/internal/config"
	"lacuna/internal/library"
	"lacuna/internal/logging"
	"lacuna/internal/resolve"
)

var (
	// ErrAlreadyRunning is returned when a run is started while another
	// is active on the same engine.
	ErrAlreadyRunning = errors.New("an analysis run is already in progress")

	// ErrMissingCredentials is returned when the domain's catalog
	// credentials are not configured.
	ErrMissingCredentials = errors.New("catalog credentials not configured")
)

// MovieCatalog is the TMDB surface the movie and TV analyzers consume.
type MovieCatalog interface {
	SearchMovie(ctx context.Context, query string, year int) (*tmdb.SearchResponse, error)
	SearchTV(ctx context.Context, query string, year int) (*tmdb.SearchResponse, error)
	FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResponse, error)
	MovieDetails(ctx context.Context, movieID int64) (*tmdb.Movie, error)
	CollectionDetails(ctx context.Context, collectionID int64) (*tmdb.Collection, error)
	TVDetails(ctx context.Context, showID int64) (*tmdb.TVShow, error)
	Seasons(ctx context.Context, showID int64, numbers []int) (map[int]*tmdb.Season, error)
}

// MusicCatalog is the MusicBrainz surface the discography analyzer
// consumes.
type MusicCatalog interface {
	SearchArtist(ctx context.Context, name string) (*musicbrainz.ArtistSearchResponse, error)
	ReleaseGroupsByArtist(ctx context.Context, artistID string) ([]musicbrainz.ReleaseGroup, error)
	ReleasesByReleaseGroup(ctx context.Context, releaseGroupID string) ([]musicbrainz.Release, error)
	ReleaseTracks(ctx context.Context, releaseID string) (*musicbrainz.Release, error)
	HasNonVinylRelease(ctx context.Context, releaseGroupID string) (bool, error)
}

// Engine coordinates analysis runs over the library store and the
// catalog clients. One engine serves one store; runs are serialized.
type Engine struct {
	cfg      *config.Config
	store    *library.Store
	movies   MovieCatalog
	music    MusicCatalog
	resolver *resolve.Resolver
	logger   *slog.Logger
	token    *CancelToken
	running  atomic.Bool

	// now is replaceable in tests that exercise the freshness window.
	now func() time.Time
}

// reanalyzeWindow is how long a record stays fresh enough to skip.
func (e *Engine) reanalyzeWindow() time.Duration {
	if e.cfg == nil {
		return 0
	}
	return time.Duration(e.cfg.Analysis.ReanalyzeAfterDays) * 24 * time.Hour
}

// New creates an Engine. Either catalog client may be nil; starting a
// run in a domain whose client is missing fails with
// ErrMissingCredentials.
func New(cfg *config.Config, store *library.Store, movies MovieCatalog, music MusicCatalog, logger *slog.Logger) *Engine {
	var searcher resolve.Searcher
	if movies != nil {
		searcher = movies
	}
	var artistSearcher resolve.ArtistSearcher
	if music != nil {
		artistSearcher = music
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		movies:   movies,
		music:    music,
		resolver: resolve.New(searcher, artistSearcher, logger),
		logger:   logging.NewComponentLogger(logger, "analysis"),
		token:    NewCancelToken(),
		now:      time.Now,
	}
}

// Cancel requests that the active run stop at its next batch boundary.
// It is safe to call from any goroutine and is a no-op when idle.
func (e *Engine) Cancel() {
	e.token.Cancel()
}

// AnalyzeSeries reconciles owned episodes against TMDB season listings.
func (e *Engine) AnalyzeSeries(ctx context.Context, opts Options) (*Summary, error) {
	if err := e.requireTMDB(); err != nil {
		return nil, err
	}
	return e.run(ctx, library.DomainSeries, opts, e.analyzeSeries)
}

// AnalyzeCollections reconciles owned movies against the TMDB
// collections they belong to.
func (e *Engine) AnalyzeCollections(ctx context.Context, opts Options) (*Summary, error) {
	if err := e.requireTMDB(); err != nil {
		return nil, err
	}
	return e.run(ctx, library.DomainCollection, opts, e.analyzeCollections)
}

// AnalyzeDiscographies reconciles owned tracks against MusicBrainz
// artist discographies.
func (e *Engine) AnalyzeDiscographies(ctx context.Context, opts Options) (*Summary, error) {
	if e.music == nil {
		return nil, fmt.Errorf("%w: musicbrainz client unavailable", ErrMissingCredentials)
	}
	return e.run(ctx, library.DomainDiscography, opts, e.analyzeDiscographies)
}

func (e *Engine) requireTMDB() error {
	if e.movies == nil || (e.cfg != nil && e.cfg.TMDB.APIKey == "") {
		return fmt.Errorf("%w: tmdb api key required", ErrMissingCredentials)
	}
	return nil
}

type analyzeFunc func(ctx context.Context, opts Options, summary *Summary) error

// run brackets one analysis run: exclusive access, a fresh cancel
// token, a run ID on the context, and the store's batch-write mode.
// Work committed by checkpoints survives both cancellation and errors.
func (e *Engine) run(ctx context.Context, domain library.Domain, opts Options, fn analyzeFunc) (*Summary, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)
	e.token.Reset()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldDomain, string(domain)))
	logger.Info("analysis run starting", logging.String("scope", opts.Scope()))

	if err := e.store.BeginBatch(ctx); err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}

	summary := &Summary{}
	runErr := fn(ctx, opts, summary)

	if err := e.store.EndBatch(); err != nil {
		if runErr == nil {
			runErr = fmt.Errorf("commit batch: %w", err)
		} else {
			logger.Error("commit batch failed after run error", logging.Error(err))
		}
	}
	if runErr != nil {
		return summary, runErr
	}

	summary.Completed = !e.token.Cancelled()
	logger.Info("analysis run finished",
		logging.Bool("completed", summary.Completed),
		logging.Int("analyzed", summary.Analyzed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

// AnalyzeAll runs every domain whose catalog client is configured, in
// sequence. Domains without credentials are skipped with a log line;
// any other failure stops the sweep.
func (e *Engine) AnalyzeAll(ctx context.Context, opts Options) (map[library.Domain]*Summary, error) {
	runs := []struct {
		domain library.Domain
		fn     func(context.Context, Options) (*Summary, error)
	}{
		{library.DomainSeries, e.AnalyzeSeries},
		{library.DomainCollection, e.AnalyzeCollections},
		{library.DomainDiscography, e.AnalyzeDiscographies},
	}
	summaries := make(map[library.Domain]*Summary, len(runs))
	for _, run := range runs {
		summary, err := run.fn(ctx, opts)
		if errors.Is(err, ErrMissingCredentials) {
			e.logger.Info("domain skipped, no credentials",
				logging.String(logging.FieldDomain, string(run.domain)),
			)
			continue
		}
		if err != nil {
			return summaries, fmt.Errorf("analyze %s: %w", run.domain, err)
		}
		summaries[run.domain] = summary
	}
	return summaries, nil
}

// RecordsByDomain exposes stored records for reporting.
func (e *Engine) RecordsByDomain(ctx context.Context, domain library.Domain) ([]*library.CompletenessRecord, error) {
	return e.store.RecordsByDomain(ctx, domain)
}

// Stats exposes aggregated record statistics for reporting.
func (e *Engine) Stats(ctx context.Context) (*library.Stats, error) {
	return e.store.Stats(ctx)
}
