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

func (e *Engine) analyzeSeries(ctx context.Context, opts Options, summary *Summary) error {
	items, err := e.store.OwnedItems(ctx, library.ItemFilter{
		Kind:     library.KindEpisode,
		Provider: opts.Provider,
		Library:  opts.Library,
	})
	if err != nil {
		return fmt.Errorf("enumerate owned episodes: %w", err)
	}

	var groupResolver dedup.SeriesResolver
	if opts.deduplicate() {
		groupResolver = e.resolver
	}
	groups := dedup.SeriesGroups(ctx, items, groupResolver)

	if opts.Progress != nil {
		opts.Progress(Progress{Phase: PhaseScanning, Total: len(groups)})
	}

	units := make([]unit, 0, len(groups))
	for _, group := range groups {
		units = append(units, unit{
			key:   seriesUnitKey(group),
			title: group.Title,
			run: func(ctx context.Context) (unitResult, error) {
				return e.analyzeOneSeries(ctx, group, opts)
			},
		})
	}
	return e.runUnits(ctx, units, opts, summary)
}

func seriesUnitKey(group dedup.Series) string {
	if group.TMDBID != "" {
		return "tmdb:" + group.TMDBID
	}
	return "title:" + resolve.NormalizeTitle(group.Title)
}

func (e *Engine) analyzeOneSeries(ctx context.Context, group dedup.Series, opts Options) (unitResult, error) {
	scope := opts.Scope()

	tmdbID := group.TMDBID
	if tmdbID == "" {
		tmdbID, _ = e.resolveSeriesLate(ctx, group)
	}
	if tmdbID == "" {
		key := seriesUnitKey(group)
		if skip, err := e.skipFresh(ctx, library.DomainSeries, key, scope, len(group.Episodes), opts); err != nil {
			return 0, err
		} else if skip {
			return resultSkipped, nil
		}
		return resultAnalyzed, e.store.UpsertRecord(ctx, &library.CompletenessRecord{
			Domain:       library.DomainSeries,
			UnitKey:      key,
			UnitTitle:    group.Title,
			Scope:        scope,
			OwnedCount:   len(group.Episodes),
			ScannedCount: len(group.Episodes),
			Status:       library.StatusUnmatched,
		})
	}

	key := "tmdb:" + tmdbID
	if skip, err := e.skipFresh(ctx, library.DomainSeries, key, scope, len(group.Episodes), opts); err != nil {
		return 0, err
	} else if skip {
		return resultSkipped, nil
	}

	showID, err := strconv.ParseInt(tmdbID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed tmdb id %q: %w", tmdbID, err)
	}
	show, err := e.movies.TVDetails(ctx, showID)
	if err != nil {
		return 0, fmt.Errorf("fetch tv details for %s: %w", group.Title, err)
	}

	now := e.now()
	var numbers []int
	for _, season := range show.Seasons {
		// Season 0 holds specials; announced seasons without an air
		// date are not owed to anyone yet.
		if season.SeasonNumber == 0 || !released(season.AirDate, now) {
			continue
		}
		numbers = append(numbers, season.SeasonNumber)
	}
	seasons, err := e.movies.Seasons(ctx, showID, numbers)
	if err != nil {
		return 0, fmt.Errorf("fetch seasons for %s: %w", group.Title, err)
	}

	type slot struct{ season, episode int }
	owned := make(map[slot]bool, len(group.Episodes))
	for _, ep := range group.Episodes {
		owned[slot{ep.Season, ep.Episode}] = true
	}

	var (
		missing        []library.MissingItem
		missingSeasons []int
		total          int
		ownedInCatalog int
	)
	for _, n := range numbers {
		season := seasons[n]
		if season == nil {
			continue
		}
		seasonTotal, seasonOwned := 0, 0
		for _, ep := range season.Episodes {
			if !released(ep.AirDate, now) {
				continue
			}
			total++
			seasonTotal++
			if owned[slot{n, ep.EpisodeNumber}] {
				ownedInCatalog++
				seasonOwned++
				continue
			}
			missing = append(missing, library.MissingItem{
				Season:  n,
				Episode: ep.EpisodeNumber,
				Title:   ep.Name,
				AirDate: ep.AirDate,
			})
		}
		if seasonTotal > 0 && seasonOwned == 0 {
			missingSeasons = append(missingSeasons, n)
		}
	}

	status := library.StatusComplete
	if len(missing) > 0 {
		status = library.StatusIncomplete
	}
	title := show.Name
	if title == "" {
		title = group.Title
	}
	artworkURL := tmdb.ImageURL(show.PosterPath)

	record := &library.CompletenessRecord{
		Domain:         library.DomainSeries,
		UnitKey:        key,
		UnitTitle:      title,
		Scope:          scope,
		ExternalID:     tmdbID,
		TotalCount:     total,
		OwnedCount:     ownedInCatalog,
		ScannedCount:   len(group.Episodes),
		Missing:        missing,
		MissingSeasons: missingSeasons,
		Percentage:     percent(ownedInCatalog, total),
		ArtworkURL:     artworkURL,
		Status:         status,
	}
	if err := e.store.UpsertRecord(ctx, record); err != nil {
		return 0, err
	}
	e.pushArtwork(ctx, group.Episodes, artworkURL)

	logging.WithContext(ctx, e.logger).Debug("series analyzed",
		logging.String(logging.FieldUnit, key),
		logging.Int("total", total),
		logging.Int("owned", ownedInCatalog),
		logging.Int("missing", len(missing)),
	)
	return resultAnalyzed, nil
}

// resolveSeriesLate retries resolution for a group the duplicate
// collapse left unresolved, pulling identifiers from its episodes.
func (e *Engine) resolveSeriesLate(ctx context.Context, group dedup.Series) (string, bool) {
	externalID, altID := "", ""
	year := group.Year
	for _, ep := range group.Episodes {
		if externalID == "" {
			externalID = ep.ExternalID
		}
		if altID == "" {
			altID = ep.AltExternalID
		}
	}
	return e.resolver.SeriesID(ctx, externalID, altID, group.Title, year)
}
