package completeness_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"lacuna/internal/catalog/tmdb"
	"lacuna/internal/completeness"
	"lacuna/internal/library"
	"lacuna/internal/logging"
	"lacuna/internal/testsupport"
)

// seedManySeries registers count one-episode series in both the fake
// catalog and the store.
func seedManySeries(t *testing.T, store *library.Store, catalog *fakeTMDB, count int) {
	t.Helper()
	for i := 1; i <= count; i++ {
		id := int64(1000 + i)
		title := fmt.Sprintf("Series %02d", i)
		catalog.shows[id] = &tmdb.TVShow{
			ID:   id,
			Name: title,
			Seasons: []tmdb.SeasonRef{
				{SeasonNumber: 1, EpisodeCount: 2, AirDate: "2020-01-02"},
			},
		}
		catalog.seasons[id] = map[int]*tmdb.Season{1: makeSeason(1, 2)}
		testsupport.SeedItem(t, store, library.OwnedItem{
			Kind:        library.KindEpisode,
			SeriesTitle: title,
			Season:      1,
			Episode:     1,
			ExternalID:  fmt.Sprintf("%d", id),
		})
	}
}

func TestCancellationStopsAtBatchBoundary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBatchSize(1), testsupport.WithCheckpointInterval(1))
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()

	const total = 12
	seedManySeries(t, store, catalog, total)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	opts := completeness.Options{
		Progress: func(p completeness.Progress) {
			if p.Phase == completeness.PhaseFetching && p.Current == 2 {
				engine.Cancel()
			}
		},
	}
	summary, err := engine.AnalyzeSeries(context.Background(), opts)
	if err != nil {
		t.Fatalf("AnalyzeSeries: %v", err)
	}
	if summary.Completed {
		t.Fatal("summary.Completed = true for a cancelled run")
	}
	if summary.Processed() >= total || summary.Processed() < 2 {
		t.Fatalf("processed %d of %d units, want a partial run of at least 2", summary.Processed(), total)
	}

	// Everything processed before cancellation is committed.
	if store.InBatch() {
		t.Fatal("batch write still open after run")
	}
	records, err := store.RecordsByDomain(context.Background(), library.DomainSeries)
	if err != nil {
		t.Fatalf("RecordsByDomain: %v", err)
	}
	if len(records) != summary.Processed() {
		t.Fatalf("got %d records, want %d (one per processed unit)", len(records), summary.Processed())
	}
}

func TestSecondRunSkipsFreshUnits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	seedManySeries(t, store, catalog, 1)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	if _, err := engine.AnalyzeSeries(context.Background(), completeness.Options{}); err != nil {
		t.Fatalf("first AnalyzeSeries: %v", err)
	}
	if calls := catalog.tvDetailCalls.Load(); calls != 1 {
		t.Fatalf("TVDetails called %d times on first run, want 1", calls)
	}

	summary, err := engine.AnalyzeSeries(context.Background(), completeness.Options{})
	if err != nil {
		t.Fatalf("second AnalyzeSeries: %v", err)
	}
	if summary.Skipped != 1 || summary.Analyzed != 0 {
		t.Fatalf("summary = %+v, want the fresh unit skipped", summary)
	}
	if calls := catalog.tvDetailCalls.Load(); calls != 1 {
		t.Fatalf("TVDetails called %d times, want no catalog work on the skip path", calls)
	}
}

func TestSkipHeuristicNoticesNewItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	seedManySeries(t, store, catalog, 1)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	if _, err := engine.AnalyzeSeries(context.Background(), completeness.Options{}); err != nil {
		t.Fatalf("first AnalyzeSeries: %v", err)
	}

	// A new episode changes the owned count, so the record is stale.
	testsupport.SeedItem(t, store, library.OwnedItem{
		Kind: library.KindEpisode, SeriesTitle: "Series 01",
		Season: 1, Episode: 2, ExternalID: "1001",
	})

	summary, err := engine.AnalyzeSeries(context.Background(), completeness.Options{})
	if err != nil {
		t.Fatalf("second AnalyzeSeries: %v", err)
	}
	if summary.Analyzed != 1 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v, want reanalysis after library change", summary)
	}

	record, err := store.Record(context.Background(), library.DomainSeries, "tmdb:1001", "all")
	if err != nil || record == nil {
		t.Fatalf("Record: %v (record=%v)", err, record)
	}
	if record.OwnedCount != 2 || record.Status != library.StatusComplete {
		t.Fatalf("record = %+v, want both episodes owned", record)
	}
}

func TestProgressReportsUnitBeforeAnalysis(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBatchSize(1))
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	seedManySeries(t, store, catalog, 3)

	// With one-unit batches, unit N's fetch happens strictly after its
	// progress callback, so N-1 fetches have run when it fires.
	late := 0
	opts := completeness.Options{
		Progress: func(p completeness.Progress) {
			if p.Phase != completeness.PhaseFetching {
				return
			}
			if calls := catalog.tvDetailCalls.Load(); calls >= int64(p.Current) {
				late++
			}
		},
	}

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	if _, err := engine.AnalyzeSeries(context.Background(), opts); err != nil {
		t.Fatalf("AnalyzeSeries: %v", err)
	}
	if late > 0 {
		t.Fatalf("%d progress callbacks fired after their unit was fetched", late)
	}
}

func TestSkipHeuristicToleratesUncataloguedItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	seedManySeries(t, store, catalog, 1)

	// An owned special never matches the catalog's episode inventory,
	// so in-catalog owned stays below the scanned count.
	testsupport.SeedItem(t, store, library.OwnedItem{
		Kind: library.KindEpisode, SeriesTitle: "Series 01",
		Season: 0, Episode: 1, ExternalID: "1001",
	})

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	if _, err := engine.AnalyzeSeries(context.Background(), completeness.Options{}); err != nil {
		t.Fatalf("first AnalyzeSeries: %v", err)
	}

	summary, err := engine.AnalyzeSeries(context.Background(), completeness.Options{})
	if err != nil {
		t.Fatalf("second AnalyzeSeries: %v", err)
	}
	if summary.Skipped != 1 || summary.Analyzed != 0 {
		t.Fatalf("summary = %+v, want the unchanged unit skipped despite the special", summary)
	}
	if calls := catalog.tvDetailCalls.Load(); calls != 1 {
		t.Fatalf("TVDetails called %d times, want 1", calls)
	}
}

func TestForceOverridesFreshness(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	seedManySeries(t, store, catalog, 1)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	if _, err := engine.AnalyzeSeries(context.Background(), completeness.Options{}); err != nil {
		t.Fatalf("first AnalyzeSeries: %v", err)
	}

	summary, err := engine.AnalyzeSeries(context.Background(), completeness.Options{Force: true})
	if err != nil {
		t.Fatalf("forced AnalyzeSeries: %v", err)
	}
	if summary.Analyzed != 1 {
		t.Fatalf("summary = %+v, want forced reanalysis", summary)
	}
}

func TestOverlappingRunsAreRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	seedManySeries(t, store, catalog, 1)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	var nestedErr error
	opts := completeness.Options{
		Progress: func(p completeness.Progress) {
			if p.Phase == completeness.PhaseFetching && nestedErr == nil {
				_, nestedErr = engine.AnalyzeSeries(context.Background(), completeness.Options{})
			}
		},
	}
	if _, err := engine.AnalyzeSeries(context.Background(), opts); err != nil {
		t.Fatalf("AnalyzeSeries: %v", err)
	}
	if !errors.Is(nestedErr, completeness.ErrAlreadyRunning) {
		t.Fatalf("nested run error = %v, want ErrAlreadyRunning", nestedErr)
	}
}

func TestAnalyzeSeriesRequiresCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey(""))
	store := testsupport.MustOpenStore(t, cfg)

	engine := completeness.New(cfg, store, newFakeTMDB(), nil, logging.NewNop())
	if _, err := engine.AnalyzeSeries(context.Background(), completeness.Options{}); !errors.Is(err, completeness.ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestAnalyzeRunsAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := newFakeTMDB()
	seedManySeries(t, store, catalog, 3)

	engine := completeness.New(cfg, store, catalog, nil, logging.NewNop())
	if _, err := engine.AnalyzeSeries(context.Background(), completeness.Options{Force: true}); err != nil {
		t.Fatalf("first AnalyzeSeries: %v", err)
	}
	if _, err := engine.AnalyzeSeries(context.Background(), completeness.Options{Force: true}); err != nil {
		t.Fatalf("second AnalyzeSeries: %v", err)
	}

	records, err := store.RecordsByDomain(context.Background(), library.DomainSeries)
	if err != nil {
		t.Fatalf("RecordsByDomain: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records after two runs, want 3 (upserted, not duplicated)", len(records))
	}
	for _, record := range records {
		if record.Percentage < 0 || record.Percentage > 100 {
			t.Fatalf("percentage %d out of range for %s", record.Percentage, record.UnitKey)
		}
	}
}
