package dedup_test

import (
	"context"
	"testing"

	"lacuna/internal/dedup"
	"lacuna/internal/library"
)

type fakeResolver struct {
	movieIDs  map[string]string // title -> TMDB ID
	seriesIDs map[string]string
}

func (f *fakeResolver) MovieID(ctx context.Context, externalID, imdbID, title string, year int) (string, bool) {
	if externalID != "" {
		return externalID, true
	}
	id, ok := f.movieIDs[title]
	return id, ok
}

func (f *fakeResolver) SeriesID(ctx context.Context, externalID, imdbID, title string, year int) (string, bool) {
	if externalID != "" {
		return externalID, true
	}
	id, ok := f.seriesIDs[title]
	return id, ok
}

func TestMoviesCollapsesDuplicatesKeepingHigherBitrate(t *testing.T) {
	items := []library.OwnedItem{
		{ID: 1, Provider: "plex", Title: "Dune", ExternalID: "438631", Bitrate: 8_000_000},
		{ID: 2, Provider: "jellyfin", Title: "Dune", ExternalID: "438631", Bitrate: 24_000_000},
		{ID: 3, Provider: "plex", Title: "Arrival", ExternalID: "329865", Bitrate: 12_000_000},
	}

	movies := dedup.Movies(context.Background(), items, &fakeResolver{})
	if len(movies) != 2 {
		t.Fatalf("got %d movies, want 2", len(movies))
	}
	if movies[0].TMDBID != "438631" || movies[0].Copies != 2 {
		t.Fatalf("first group = %+v, want TMDB 438631 with 2 copies", movies[0])
	}
	if movies[0].Item.ID != 2 {
		t.Fatalf("kept item %d, want the higher-bitrate copy (2)", movies[0].Item.ID)
	}
	if movies[1].TMDBID != "329865" || movies[1].Copies != 1 {
		t.Fatalf("second group = %+v, want TMDB 329865 with 1 copy", movies[1])
	}
}

func TestMoviesResolvesMissingIDs(t *testing.T) {
	resolver := &fakeResolver{movieIDs: map[string]string{"Dune": "438631"}}
	items := []library.OwnedItem{
		{ID: 1, Title: "Dune", ExternalID: "438631"},
		{ID: 2, Title: "Dune"}, // same film, ID lost on this provider
	}

	movies := dedup.Movies(context.Background(), items, resolver)
	if len(movies) != 1 {
		t.Fatalf("got %d movies, want 1 after resolution", len(movies))
	}
	if movies[0].Copies != 2 {
		t.Fatalf("Copies = %d, want 2", movies[0].Copies)
	}
}

func TestMoviesKeepsUnresolvedUngrouped(t *testing.T) {
	items := []library.OwnedItem{
		{ID: 1, Title: "Home Video 2019"},
		{ID: 2, Title: "Home Video 2019"},
	}

	movies := dedup.Movies(context.Background(), items, &fakeResolver{})
	if len(movies) != 2 {
		t.Fatalf("got %d movies, want 2 ungrouped unresolved entries", len(movies))
	}
	for _, m := range movies {
		if m.TMDBID != "" {
			t.Fatalf("unresolved entry has TMDBID %q", m.TMDBID)
		}
	}
}

func TestSeriesGroupsMergesProvidersAndDedupesEpisodes(t *testing.T) {
	episodes := []library.OwnedItem{
		{ID: 1, Provider: "plex", SeriesTitle: "The Expanse", Season: 1, Episode: 1, ExternalID: "63639", Bitrate: 10},
		{ID: 2, Provider: "plex", SeriesTitle: "The Expanse", Season: 1, Episode: 2, ExternalID: "63639"},
		{ID: 3, Provider: "jellyfin", SeriesTitle: "Expanse", Season: 1, Episode: 1, ExternalID: "63639", Bitrate: 20},
		{ID: 4, Provider: "jellyfin", SeriesTitle: "Expanse", Season: 2, Episode: 1, ExternalID: "63639"},
	}

	groups := dedup.SeriesGroups(context.Background(), episodes, &fakeResolver{})
	if len(groups) != 1 {
		t.Fatalf("got %d series, want 1 merged group", len(groups))
	}
	group := groups[0]
	if group.TMDBID != "63639" {
		t.Fatalf("TMDBID = %q, want 63639", group.TMDBID)
	}
	if len(group.Episodes) != 3 {
		t.Fatalf("got %d episodes, want 3 after (season, episode) dedup", len(group.Episodes))
	}
	if group.Episodes[0].Season != 1 || group.Episodes[0].Episode != 1 || group.Episodes[0].ID != 3 {
		t.Fatalf("S1E1 = %+v, want the higher-bitrate jellyfin copy", group.Episodes[0])
	}
	if group.Episodes[2].Season != 2 || group.Episodes[2].Episode != 1 {
		t.Fatalf("episodes not sorted by season/episode: %+v", group.Episodes)
	}
}

func TestSeriesGroupsKeepsUnresolvedSeparate(t *testing.T) {
	episodes := []library.OwnedItem{
		{ID: 1, SeriesTitle: "Unknown Show", Season: 1, Episode: 1},
		{ID: 2, SeriesTitle: "Another Unknown", Season: 1, Episode: 1},
	}

	groups := dedup.SeriesGroups(context.Background(), episodes, &fakeResolver{})
	if len(groups) != 2 {
		t.Fatalf("got %d series, want 2 separate unresolved groups", len(groups))
	}
	for _, g := range groups {
		if g.TMDBID != "" {
			t.Fatalf("unresolved group has TMDBID %q", g.TMDBID)
		}
	}
}
