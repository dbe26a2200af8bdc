package testsupport

import (
	"context"
	"testing"

	"lacuna/internal/config"
	"lacuna/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedItem inserts an owned item for tests using the provided store.
func SeedItem(t testing.TB, store *library.Store, item library.OwnedItem) library.OwnedItem {
	t.Helper()

	if item.Provider == "" {
		item.Provider = "plex"
	}
	if err := store.InsertOwnedItem(context.Background(), &item); err != nil {
		t.Fatalf("store.InsertOwnedItem: %v", err)
	}
	return item
}

// SeedEpisode inserts an owned episode with the common fields filled in.
func SeedEpisode(t testing.TB, store *library.Store, series string, season, episode int, bitrate int64) library.OwnedItem {
	t.Helper()
	return SeedItem(t, store, library.OwnedItem{
		Kind:        library.KindEpisode,
		SeriesTitle: series,
		Season:      season,
		Episode:     episode,
		Bitrate:     bitrate,
	})
}

// SeedMovie inserts an owned movie with the common fields filled in.
func SeedMovie(t testing.TB, store *library.Store, title string, year int, externalID string, bitrate int64) library.OwnedItem {
	t.Helper()
	return SeedItem(t, store, library.OwnedItem{
		Kind:       library.KindMovie,
		Title:      title,
		Year:       year,
		ExternalID: externalID,
		Bitrate:    bitrate,
	})
}

// SeedTrack inserts an owned track with the common fields filled in.
func SeedTrack(t testing.TB, store *library.Store, artist, album, title string, position int) library.OwnedItem {
	t.Helper()
	return SeedItem(t, store, library.OwnedItem{
		Kind:   library.KindTrack,
		Artist: artist,
		Album:  album,
		Title:  title,
		Track:  position,
	})
}
