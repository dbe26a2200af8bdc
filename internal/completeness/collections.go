package completeness

import (
	"context"
	"fmt"
	"strconv"

	"lacuna/internal/catalog/tmdb"
	"lacuna/internal/dedup"
	"lacuna/internal/library"
	"lacuna/internal/logging"
	"lacuna/internal/resolve"
)

// collectionGroup accumulates the owned members of one TMDB collection
// during the scanning phase.
type collectionGroup struct {
	id       int64
	name     string
	ownedIDs map[int64]bool
	items    []library.OwnedItem
}

func (e *Engine) analyzeCollections(ctx context.Context, opts Options, summary *Summary) error {
	groups, err := e.scanCollections(ctx, opts)
	if err != nil {
		return err
	}

	units := make([]unit, 0, len(groups))
	for _, group := range groups {
		units = append(units, unit{
			key:   collectionUnitKey(group.id),
			title: group.name,
			run: func(ctx context.Context) (unitResult, error) {
				return e.analyzeOneCollection(ctx, group, opts)
			},
		})
	}
	return e.runUnits(ctx, units, opts, summary)
}

// scanCollections resolves each owned movie and groups the library by
// the TMDB collections the movies belong to, in first-seen order.
// Movies outside any collection are dropped here.
func (e *Engine) scanCollections(ctx context.Context, opts Options) ([]*collectionGroup, error) {
	items, err := e.store.OwnedItems(ctx, library.ItemFilter{
		Kind:     library.KindMovie,
		Provider: opts.Provider,
		Library:  opts.Library,
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate owned movies: %w", err)
	}

	var groupResolver dedup.MovieResolver
	if opts.deduplicate() {
		groupResolver = e.resolver
	}
	movies := dedup.Movies(ctx, items, groupResolver)

	logger := logging.WithContext(ctx, e.logger)
	groups := make(map[int64]*collectionGroup)
	var order []int64
	for i, movie := range movies {
		if e.token.Cancelled() {
			break
		}
		if opts.Progress != nil {
			opts.Progress(Progress{
				Phase:       PhaseScanning,
				Current:     i + 1,
				Total:       len(movies),
				CurrentUnit: movie.Item.Title,
			})
		}

		tmdbID := movie.TMDBID
		if tmdbID == "" {
			tmdbID, _ = e.resolver.MovieID(ctx, movie.Item.ExternalID, movie.Item.AltExternalID, movie.Item.Title, movie.Item.Year)
		}
		if tmdbID == "" {
			logger.Debug("movie unresolved, no collection membership",
				logging.String("title", movie.Item.Title),
			)
			continue
		}
		movieID, err := strconv.ParseInt(tmdbID, 10, 64)
		if err != nil {
			logger.Debug("malformed tmdb id", logging.String("id", tmdbID))
			continue
		}
		details, err := e.movies.MovieDetails(ctx, movieID)
		if err != nil {
			logger.Warn("movie details fetch failed",
				logging.String("title", movie.Item.Title),
				logging.Error(err),
			)
			continue
		}
		ref := details.BelongsToCollection
		if ref == nil {
			continue
		}
		group, seen := groups[ref.ID]
		if !seen {
			group = &collectionGroup{id: ref.ID, name: ref.Name, ownedIDs: make(map[int64]bool)}
			groups[ref.ID] = group
			order = append(order, ref.ID)
		}
		group.ownedIDs[details.ID] = true
		group.items = append(group.items, movie.Item)
	}

	ordered := make([]*collectionGroup, 0, len(order))
	for _, id := range order {
		ordered = append(ordered, groups[id])
	}
	return ordered, nil
}

func collectionUnitKey(id int64) string {
	return "tmdb-collection:" + strconv.FormatInt(id, 10)
}

func (e *Engine) analyzeOneCollection(ctx context.Context, group *collectionGroup, opts Options) (unitResult, error) {
	scope := opts.Scope()
	key := collectionUnitKey(group.id)

	if skip, err := e.skipFresh(ctx, library.DomainCollection, key, scope, len(group.ownedIDs), opts); err != nil {
		return 0, err
	} else if skip {
		return resultSkipped, nil
	}

	coll, err := e.movies.CollectionDetails(ctx, group.id)
	if err != nil {
		return 0, fmt.Errorf("fetch collection %s: %w", group.name, err)
	}

	now := e.now()
	var parts []tmdb.Result
	for _, part := range coll.Parts {
		if released(part.ReleaseDate, now) {
			parts = append(parts, part)
		}
	}
	// A one-film "collection" is a marketing shell, not something a
	// library can be incomplete against. A record from when it still
	// qualified is demoted rather than left stale.
	if len(parts) <= 1 {
		prior, err := e.store.Record(ctx, library.DomainCollection, key, scope)
		if err != nil || prior == nil {
			return resultSkipped, err
		}
		return resultSkipped, e.store.UpsertRecord(ctx, &library.CompletenessRecord{
			Domain:       library.DomainCollection,
			UnitKey:      key,
			UnitTitle:    coll.Name,
			Scope:        scope,
			ExternalID:   strconv.FormatInt(group.id, 10),
			ScannedCount: len(group.ownedIDs),
			Status:       library.StatusUntracked,
		})
	}

	var missing []library.MissingItem
	owned := 0
	for _, part := range parts {
		if group.ownedIDs[part.ID] {
			owned++
			continue
		}
		missing = append(missing, library.MissingItem{
			ExternalID: strconv.FormatInt(part.ID, 10),
			Title:      part.Title,
			Year:       resolve.ReleaseYear(part.ReleaseDate),
		})
	}

	status := library.StatusComplete
	if len(missing) > 0 {
		status = library.StatusIncomplete
	}
	artworkURL := tmdb.ImageURL(coll.PosterPath)

	record := &library.CompletenessRecord{
		Domain:       library.DomainCollection,
		UnitKey:      key,
		UnitTitle:    coll.Name,
		Scope:        scope,
		ExternalID:   strconv.FormatInt(group.id, 10),
		TotalCount:   len(parts),
		OwnedCount:   owned,
		ScannedCount: len(group.ownedIDs),
		Missing:      missing,
		Percentage:   percent(owned, len(parts)),
		ArtworkURL:   artworkURL,
		Status:       status,
	}
	if err := e.store.UpsertRecord(ctx, record); err != nil {
		return 0, err
	}
	e.pushArtwork(ctx, group.items, artworkURL)
	return resultAnalyzed, nil
}
