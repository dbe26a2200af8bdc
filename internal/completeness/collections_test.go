package completeness_test

import (
	"context"
	"testing"

	"lacuna/internal/catalog/tmdb"
	"lacuna/internal/completeness"
	"lacuna/internal/library"
	"lacuna/internal/logging"
	"lacuna/internal/testsupport"
)

func TestAnalyzeCollectionsReportsMissingMembers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	catalog.movies[11] = &tmdb.Movie{
		ID: 11, Title: "Voyager",
		BelongsToCollection: &tmdb.CollectionRef{ID: 77, Name: "Voyager Collection"},
	}
	catalog.collections[77] = &tmdb.Collection{
		ID: 77, Name: "Voyager Collection", PosterPath: "/voyager.jpg",
		Parts: []tmdb.Result{
			{ID: 11, Title: "Voyager", ReleaseDate: "2015-06-01"},
			{ID: 12, Title: "Voyager II", ReleaseDate: "2018-06-01"},
			{ID: 13, Title: "Voyager III", ReleaseDate: "2999-06-01"}, // unreleased
		},
	}

	testsupport.SeedMovie(t, store, "Voyager", 2015, "11", 10_000_000)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	summary, err := engine.AnalyzeCollections(context.Background(), completeness.Options{})
	if err != nil {
		t.Fatalf("AnalyzeCollections: %v", err)
	}
	if summary.Analyzed != 1 {
		t.Fatalf("summary = %+v, want 1 analyzed collection", summary)
	}

	record, err := store.Record(context.Background(), library.DomainCollection, "tmdb-collection:77", "all")
	if err != nil || record == nil {
		t.Fatalf("Record: %v (record=%v)", err, record)
	}
	if record.TotalCount != 2 || record.OwnedCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/2 released members", record.OwnedCount, record.TotalCount)
	}
	if record.Percentage != 50 {
		t.Fatalf("Percentage = %d, want 50", record.Percentage)
	}
	if len(record.Missing) != 1 || record.Missing[0].Title != "Voyager II" {
		t.Fatalf("Missing = %+v, want Voyager II only", record.Missing)
	}
}

func TestAnalyzeCollectionsSkipsSingleMemberCollections(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	catalog.movies[21] = &tmdb.Movie{
		ID: 21, Title: "Standalone",
		BelongsToCollection: &tmdb.CollectionRef{ID: 88, Name: "Standalone Collection"},
	}
	catalog.collections[88] = &tmdb.Collection{
		ID: 88, Name: "Standalone Collection",
		Parts: []tmdb.Result{
			{ID: 21, Title: "Standalone", ReleaseDate: "2010-01-01"},
			{ID: 22, Title: "Standalone Sequel", ReleaseDate: "2999-01-01"},
		},
	}

	testsupport.SeedMovie(t, store, "Standalone", 2010, "21", 10_000_000)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	summary, err := engine.AnalyzeCollections(context.Background(), completeness.Options{})
	if err != nil {
		t.Fatalf("AnalyzeCollections: %v", err)
	}
	if summary.Skipped != 1 || summary.Analyzed != 0 {
		t.Fatalf("summary = %+v, want the one-member collection skipped", summary)
	}

	record, err := store.Record(context.Background(), library.DomainCollection, "tmdb-collection:88", "all")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if record != nil {
		t.Fatalf("record = %+v, want none for a one-member collection", record)
	}
}

func TestAnalyzeCollectionsDemotesShrunkenCollections(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	catalog.movies[31] = &tmdb.Movie{
		ID: 31, Title: "Meridian",
		BelongsToCollection: &tmdb.CollectionRef{ID: 99, Name: "Meridian Collection"},
	}
	catalog.collections[99] = &tmdb.Collection{
		ID: 99, Name: "Meridian Collection",
		Parts: []tmdb.Result{
			{ID: 31, Title: "Meridian", ReleaseDate: "2012-01-01"},
			{ID: 32, Title: "Meridian Rising", ReleaseDate: "2016-01-01"},
		},
	}

	testsupport.SeedMovie(t, store, "Meridian", 2012, "31", 10_000_000)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	if _, err := engine.AnalyzeCollections(context.Background(), completeness.Options{}); err != nil {
		t.Fatalf("first AnalyzeCollections: %v", err)
	}

	// The catalog withdraws the second film; the existing record must
	// not stay frozen at 50% forever.
	catalog.collections[99].Parts = catalog.collections[99].Parts[:1]
	if _, err := engine.AnalyzeCollections(context.Background(), completeness.Options{Force: true}); err != nil {
		t.Fatalf("second AnalyzeCollections: %v", err)
	}

	record, err := store.Record(context.Background(), library.DomainCollection, "tmdb-collection:99", "all")
	if err != nil || record == nil {
		t.Fatalf("Record: %v (record=%v)", err, record)
	}
	if record.Status != library.StatusUntracked {
		t.Fatalf("Status = %q, want untracked after the collection shrank", record.Status)
	}
	if record.TotalCount != 0 || len(record.Missing) != 0 {
		t.Fatalf("record = %+v, want no totals or missing list once untracked", record)
	}
}

func TestAnalyzeCollectionsCollapsesDuplicateCopies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	catalog.movies[11] = &tmdb.Movie{
		ID: 11, Title: "Voyager",
		BelongsToCollection: &tmdb.CollectionRef{ID: 77, Name: "Voyager Collection"},
	}
	catalog.collections[77] = &tmdb.Collection{
		ID: 77, Name: "Voyager Collection",
		Parts: []tmdb.Result{
			{ID: 11, Title: "Voyager", ReleaseDate: "2015-06-01"},
			{ID: 12, Title: "Voyager II", ReleaseDate: "2018-06-01"},
		},
	}

	testsupport.SeedMovie(t, store, "Voyager", 2015, "11", 10_000_000)
	testsupport.SeedItem(t, store, library.OwnedItem{
		Kind: library.KindMovie, Provider: "jellyfin",
		Title: "Voyager", Year: 2015, ExternalID: "11", Bitrate: 24_000_000,
	})

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	if _, err := engine.AnalyzeCollections(context.Background(), completeness.Options{}); err != nil {
		t.Fatalf("AnalyzeCollections: %v", err)
	}

	if calls := catalog.movieDetailCalls.Load(); calls != 1 {
		t.Fatalf("MovieDetails called %d times, want 1 after duplicate collapse", calls)
	}

	record, err := store.Record(context.Background(), library.DomainCollection, "tmdb-collection:77", "all")
	if err != nil || record == nil {
		t.Fatalf("Record: %v (record=%v)", err, record)
	}
	if record.OwnedCount != 1 {
		t.Fatalf("OwnedCount = %d, want 1", record.OwnedCount)
	}
}
