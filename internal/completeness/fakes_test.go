package completeness_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"lacuna/internal/catalog/musicbrainz"
	"lacuna/internal/catalog/tmdb"
)

// fakeTMDB serves canned TMDB payloads and counts detail fetches so
// tests can assert the skip path performs no catalog work.
type fakeTMDB struct {
	mu          sync.Mutex
	shows       map[int64]*tmdb.TVShow
	seasons     map[int64]map[int]*tmdb.Season
	movies      map[int64]*tmdb.Movie
	collections map[int64]*tmdb.Collection
	searchTV    map[string][]tmdb.Result
	searchMovie map[string][]tmdb.Result

	tvDetailCalls    atomic.Int64
	movieDetailCalls atomic.Int64
}

func newFakeTMDB() *fakeTMDB {
	return &fakeTMDB{
		shows:       make(map[int64]*tmdb.TVShow),
		seasons:     make(map[int64]map[int]*tmdb.Season),
		movies:      make(map[int64]*tmdb.Movie),
		collections: make(map[int64]*tmdb.Collection),
		searchTV:    make(map[string][]tmdb.Result),
		searchMovie: make(map[string][]tmdb.Result),
	}
}

func (f *fakeTMDB) SearchMovie(ctx context.Context, query string, year int) (*tmdb.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := f.searchMovie[query]
	return &tmdb.SearchResponse{Results: results, TotalResults: len(results)}, nil
}

func (f *fakeTMDB) SearchTV(ctx context.Context, query string, year int) (*tmdb.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := f.searchTV[query]
	return &tmdb.SearchResponse{Results: results, TotalResults: len(results)}, nil
}

func (f *fakeTMDB) FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResponse, error) {
	return &tmdb.FindResponse{}, nil
}

func (f *fakeTMDB) MovieDetails(ctx context.Context, movieID int64) (*tmdb.Movie, error) {
	f.movieDetailCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	movie, ok := f.movies[movieID]
	if !ok {
		return nil, fmt.Errorf("movie %d: not found", movieID)
	}
	return movie, nil
}

func (f *fakeTMDB) CollectionDetails(ctx context.Context, collectionID int64) (*tmdb.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coll, ok := f.collections[collectionID]
	if !ok {
		return nil, fmt.Errorf("collection %d: not found", collectionID)
	}
	return coll, nil
}

func (f *fakeTMDB) TVDetails(ctx context.Context, showID int64) (*tmdb.TVShow, error) {
	f.tvDetailCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	show, ok := f.shows[showID]
	if !ok {
		return nil, fmt.Errorf("show %d: not found", showID)
	}
	return show, nil
}

func (f *fakeTMDB) Seasons(ctx context.Context, showID int64, numbers []int) (map[int]*tmdb.Season, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]*tmdb.Season, len(numbers))
	for _, n := range numbers {
		if season, ok := f.seasons[showID][n]; ok {
			out[n] = season
		}
	}
	return out, nil
}

// makeSeason builds a fully released season with count episodes.
func makeSeason(number, count int) *tmdb.Season {
	season := &tmdb.Season{SeasonNumber: number}
	for i := 1; i <= count; i++ {
		season.Episodes = append(season.Episodes, tmdb.Episode{
			SeasonNumber:  number,
			EpisodeNumber: i,
			Name:          fmt.Sprintf("Episode %d", i),
			AirDate:       "2020-01-02",
		})
	}
	return season
}

// fakeMusic serves canned MusicBrainz payloads.
type fakeMusic struct {
	mu            sync.Mutex
	artists       map[string][]musicbrainz.Artist
	releaseGroups map[string][]musicbrainz.ReleaseGroup
	releases      map[string][]musicbrainz.Release
	tracklists    map[string]*musicbrainz.Release
	vinylOnly     map[string]bool
}

func newFakeMusic() *fakeMusic {
	return &fakeMusic{
		artists:       make(map[string][]musicbrainz.Artist),
		releaseGroups: make(map[string][]musicbrainz.ReleaseGroup),
		releases:      make(map[string][]musicbrainz.Release),
		tracklists:    make(map[string]*musicbrainz.Release),
		vinylOnly:     make(map[string]bool),
	}
}

func (f *fakeMusic) SearchArtist(ctx context.Context, name string) (*musicbrainz.ArtistSearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	artists := f.artists[name]
	return &musicbrainz.ArtistSearchResponse{Artists: artists, Count: len(artists)}, nil
}

func (f *fakeMusic) ReleaseGroupsByArtist(ctx context.Context, artistID string) ([]musicbrainz.ReleaseGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseGroups[artistID], nil
}

func (f *fakeMusic) ReleasesByReleaseGroup(ctx context.Context, releaseGroupID string) ([]musicbrainz.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases[releaseGroupID], nil
}

func (f *fakeMusic) ReleaseTracks(ctx context.Context, releaseID string) (*musicbrainz.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	release, ok := f.tracklists[releaseID]
	if !ok {
		return nil, fmt.Errorf("release %s: not found", releaseID)
	}
	return release, nil
}

func (f *fakeMusic) HasNonVinylRelease(ctx context.Context, releaseGroupID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.vinylOnly[releaseGroupID], nil
}
