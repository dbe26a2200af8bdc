package dedup

import (
	"context"

	"lacuna/internal/library"
)

// MovieResolver resolves an owned movie to its TMDB ID.
type MovieResolver interface {
	MovieID(ctx context.Context, externalID, imdbID, title string, year int) (string, bool)
}

// Movie is one distinct owned movie after duplicate collapse. Item is
// the best copy (highest bitrate) among the merged duplicates.
type Movie struct {
	TMDBID string
	Item   library.OwnedItem
	Copies int
}

// Movies collapses owned movie items that resolve to the same TMDB ID.
// Unresolved items are kept as individual entries with an empty TMDBID.
// Input order is preserved by first appearance.
func Movies(ctx context.Context, items []library.OwnedItem, resolver MovieResolver) []Movie {
	movies := make([]Movie, 0, len(items))
	byID := make(map[string]int, len(items))

	for _, item := range items {
		id, ok := resolveMovie(ctx, resolver, item)
		if !ok {
			movies = append(movies, Movie{Item: item, Copies: 1})
			continue
		}
		if idx, seen := byID[id]; seen {
			movies[idx].Copies++
			if item.Bitrate > movies[idx].Item.Bitrate {
				movies[idx].Item = item
			}
			continue
		}
		byID[id] = len(movies)
		movies = append(movies, Movie{TMDBID: id, Item: item, Copies: 1})
	}
	return movies
}

func resolveMovie(ctx context.Context, resolver MovieResolver, item library.OwnedItem) (string, bool) {
	if resolver == nil {
		if item.ExternalID != "" {
			return item.ExternalID, true
		}
		return "", false
	}
	return resolver.MovieID(ctx, item.ExternalID, item.AltExternalID, item.Title, item.Year)
}
