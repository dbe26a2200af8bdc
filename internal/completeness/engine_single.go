package completeness

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lacuna/internal/dedup"
	"lacuna/internal/library"
	"lacuna/internal/logging"
	"lacuna/internal/resolve"
)

// ErrUnitNotFound is returned by the single-unit entry points when
// nothing in the owned library matches the requested unit key.
var ErrUnitNotFound = errors.New("no owned unit matches the requested key")

// AnalyzeOneSeries analyzes a single series, addressed by its unit key
// ("tmdb:<id>" or "title:<normalized title>"), and returns the stored
// record. Freshness is ignored: asking for one unit means analyze it
// now.
func (e *Engine) AnalyzeOneSeries(ctx context.Context, unitKey string, opts Options) (*library.CompletenessRecord, error) {
	if err := e.requireTMDB(); err != nil {
		return nil, err
	}
	opts.Force = true
	return e.runSingle(ctx, library.DomainSeries, opts, func(ctx context.Context) (string, error) {
		items, err := e.store.OwnedItems(ctx, library.ItemFilter{
			Kind:     library.KindEpisode,
			Provider: opts.Provider,
			Library:  opts.Library,
		})
		if err != nil {
			return "", fmt.Errorf("enumerate owned episodes: %w", err)
		}
		var groupResolver dedup.SeriesResolver
		if opts.deduplicate() {
			groupResolver = e.resolver
		}
		for _, group := range dedup.SeriesGroups(ctx, items, groupResolver) {
			if seriesUnitKey(group) != unitKey {
				continue
			}
			if _, err := e.analyzeOneSeries(ctx, group, opts); err != nil {
				return "", err
			}
			// A title-keyed group may have resolved during analysis, in
			// which case the record sits under its TMDB key. The lookup
			// repeats the resolution against warm caches.
			key := unitKey
			if group.TMDBID == "" {
				if id, ok := e.resolveSeriesLate(ctx, group); ok {
					key = "tmdb:" + id
				}
			}
			return key, nil
		}
		return "", ErrUnitNotFound
	})
}

// AnalyzeOneCollection analyzes a single movie collection, addressed by
// its unit key ("tmdb-collection:<id>"). Membership still requires
// scanning the owned movies, so this saves catalog fetches, not the
// scan. A one-member collection yields a nil record.
func (e *Engine) AnalyzeOneCollection(ctx context.Context, unitKey string, opts Options) (*library.CompletenessRecord, error) {
	if err := e.requireTMDB(); err != nil {
		return nil, err
	}
	opts.Force = true
	return e.runSingle(ctx, library.DomainCollection, opts, func(ctx context.Context) (string, error) {
		groups, err := e.scanCollections(ctx, opts)
		if err != nil {
			return "", err
		}
		for _, group := range groups {
			if collectionUnitKey(group.id) != unitKey {
				continue
			}
			if _, err := e.analyzeOneCollection(ctx, group, opts); err != nil {
				return "", err
			}
			return unitKey, nil
		}
		return "", ErrUnitNotFound
	})
}

// AnalyzeOneArtist analyzes a single artist discography, addressed by
// its unit key ("artist:<normalized name>"), and returns the stored
// record.
func (e *Engine) AnalyzeOneArtist(ctx context.Context, unitKey string, opts Options) (*library.CompletenessRecord, error) {
	if e.music == nil {
		return nil, fmt.Errorf("%w: musicbrainz client unavailable", ErrMissingCredentials)
	}
	opts.Force = true
	return e.runSingle(ctx, library.DomainDiscography, opts, func(ctx context.Context) (string, error) {
		groups, err := e.ownedArtists(ctx, opts)
		if err != nil {
			return "", err
		}
		for _, group := range groups {
			if "artist:"+resolve.NormalizeTitle(group.name) != unitKey {
				continue
			}
			if _, err := e.analyzeOneArtist(ctx, group, opts); err != nil {
				return "", err
			}
			return unitKey, nil
		}
		return "", ErrUnitNotFound
	})
}

// runSingle brackets a one-unit analysis with the same run state and
// store batch mode as a full run, then loads the record fn reported
// writing. The record is nil when the analysis produced none.
func (e *Engine) runSingle(ctx context.Context, domain library.Domain, opts Options, fn func(context.Context) (string, error)) (*library.CompletenessRecord, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)
	e.token.Reset()

	ctx = logging.WithRunID(ctx, uuid.NewString())
	if err := e.store.BeginBatch(ctx); err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	key, runErr := fn(ctx)
	if err := e.store.EndBatch(); err != nil && runErr == nil {
		runErr = fmt.Errorf("commit batch: %w", err)
	}
	if runErr != nil {
		return nil, runErr
	}
	return e.store.Record(ctx, domain, key, opts.Scope())
}
