package dedup

import (
	"context"
	"sort"

	"lacuna/internal/library"
	"lacuna/internal/resolve"
)

// SeriesResolver resolves a series to its TMDB TV show ID.
type SeriesResolver interface {
	SeriesID(ctx context.Context, externalID, imdbID, title string, year int) (string, bool)
}

// Series is one distinct series after cross-provider merge. Episodes is
// deduplicated by (season, episode), keeping the highest-bitrate copy,
// and sorted by season then episode.
type Series struct {
	TMDBID   string
	Title    string
	Year     int
	Episodes []library.OwnedItem
}

type titleGroup struct {
	title    string
	year     int
	episodes []library.OwnedItem
}

// SeriesGroups groups owned episode items into distinct series. Items
// are first grouped by normalized series title, each group is resolved
// to a TMDB ID, and groups sharing an ID are merged so the same show
// held under variant titles across providers counts once. Unresolved
// groups survive on their own with an empty TMDBID.
func SeriesGroups(ctx context.Context, episodes []library.OwnedItem, resolver SeriesResolver) []Series {
	var order []string
	byTitle := make(map[string]*titleGroup)
	for _, ep := range episodes {
		key := resolve.NormalizeTitle(ep.SeriesTitle)
		group, seen := byTitle[key]
		if !seen {
			group = &titleGroup{title: ep.SeriesTitle, year: ep.Year}
			byTitle[key] = group
			order = append(order, key)
		}
		group.episodes = append(group.episodes, ep)
	}

	var groups []Series
	byID := make(map[string]int)
	for _, key := range order {
		group := byTitle[key]
		id, ok := resolveSeries(ctx, resolver, group)
		if !ok {
			groups = append(groups, Series{
				Title:    group.title,
				Year:     group.year,
				Episodes: dedupeEpisodes(group.episodes),
			})
			continue
		}
		if idx, seen := byID[id]; seen {
			merged := append(groups[idx].Episodes, group.episodes...)
			groups[idx].Episodes = dedupeEpisodes(merged)
			continue
		}
		byID[id] = len(groups)
		groups = append(groups, Series{
			TMDBID:   id,
			Title:    group.title,
			Year:     group.year,
			Episodes: dedupeEpisodes(group.episodes),
		})
	}
	return groups
}

// resolveSeries resolves one title group, taking identifiers from the
// first member that carries them.
func resolveSeries(ctx context.Context, resolver SeriesResolver, group *titleGroup) (string, bool) {
	externalID, altID := "", ""
	for _, ep := range group.episodes {
		if externalID == "" {
			externalID = ep.ExternalID
		}
		if altID == "" {
			altID = ep.AltExternalID
		}
		if externalID != "" && altID != "" {
			break
		}
	}
	if resolver == nil {
		if externalID != "" {
			return externalID, true
		}
		return "", false
	}
	return resolver.SeriesID(ctx, externalID, altID, group.title, group.year)
}

// dedupeEpisodes keeps one copy per (season, episode), preferring the
// higher bitrate, and returns them in season/episode order.
func dedupeEpisodes(episodes []library.OwnedItem) []library.OwnedItem {
	type slot struct {
		season, episode int
	}
	bySlot := make(map[slot]library.OwnedItem, len(episodes))
	for _, ep := range episodes {
		key := slot{ep.Season, ep.Episode}
		if kept, seen := bySlot[key]; seen && kept.Bitrate >= ep.Bitrate {
			continue
		}
		bySlot[key] = ep
	}
	out := make([]library.OwnedItem, 0, len(bySlot))
	for _, ep := range bySlot {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Episode < out[j].Episode
	})
	return out
}
