package resolve

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"lacuna/internal/catalog/musicbrainz"
	"lacuna/internal/catalog/tmdb"
	"lacuna/internal/logging"
)

// Searcher is the subset of the TMDB client the resolution chain uses.
type Searcher interface {
	SearchMovie(ctx context.Context, query string, year int) (*tmdb.SearchResponse, error)
	SearchTV(ctx context.Context, query string, year int) (*tmdb.SearchResponse, error)
	FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResponse, error)
}

// ArtistSearcher is the subset of the MusicBrainz client the resolution
// chain uses.
type ArtistSearcher interface {
	SearchArtist(ctx context.Context, name string) (*musicbrainz.ArtistSearchResponse, error)
}

// Resolver runs the identifier fallback chain. Lookup failures downgrade
// to debug logs and an unresolved result.
type Resolver struct {
	tmdb   Searcher
	music  ArtistSearcher
	logger *slog.Logger
}

// New creates a Resolver. Either catalog client may be nil when the
// corresponding domain is not in play.
func New(tmdbClient Searcher, musicClient ArtistSearcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		tmdb:   tmdbClient,
		music:  musicClient,
		logger: logging.NewComponentLogger(logger, "resolve"),
	}
}

// MovieID resolves a TMDB movie ID: primary external ID when present,
// then the IMDb cross-reference, then a title(+year) search.
func (r *Resolver) MovieID(ctx context.Context, externalID, imdbID, title string, year int) (string, bool) {
	if id := strings.TrimSpace(externalID); id != "" {
		return id, true
	}
	if r.tmdb == nil {
		return "", false
	}
	if imdbID = strings.TrimSpace(imdbID); imdbID != "" {
		if found, err := r.tmdb.FindByIMDbID(ctx, imdbID); err == nil && len(found.MovieResults) > 0 {
			return strconv.FormatInt(found.MovieResults[0].ID, 10), true
		} else if err != nil {
			r.logger.Debug("imdb cross-reference lookup failed",
				logging.String("imdb_id", imdbID),
				logging.Error(err),
			)
		}
	}
	if strings.TrimSpace(title) == "" {
		return "", false
	}
	resp, err := r.tmdb.SearchMovie(ctx, title, year)
	if err != nil {
		r.logger.Debug("movie search failed", logging.String("title", title), logging.Error(err))
		return "", false
	}
	result, ok := pickResult(resp.Results, title, year)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(result.ID, 10), true
}

// SeriesID resolves a TMDB TV show ID using the same chain as MovieID.
func (r *Resolver) SeriesID(ctx context.Context, externalID, imdbID, title string, year int) (string, bool) {
	if id := strings.TrimSpace(externalID); id != "" {
		return id, true
	}
	if r.tmdb == nil {
		return "", false
	}
	if imdbID = strings.TrimSpace(imdbID); imdbID != "" {
		if found, err := r.tmdb.FindByIMDbID(ctx, imdbID); err == nil && len(found.TVResults) > 0 {
			return strconv.FormatInt(found.TVResults[0].ID, 10), true
		} else if err != nil {
			r.logger.Debug("imdb cross-reference lookup failed",
				logging.String("imdb_id", imdbID),
				logging.Error(err),
			)
		}
	}
	if strings.TrimSpace(title) == "" {
		return "", false
	}
	resp, err := r.tmdb.SearchTV(ctx, title, year)
	if err != nil {
		r.logger.Debug("tv search failed", logging.String("title", title), logging.Error(err))
		return "", false
	}
	result, ok := pickResult(resp.Results, title, year)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(result.ID, 10), true
}

// ArtistID resolves a MusicBrainz artist ID by name.
func (r *Resolver) ArtistID(ctx context.Context, name string) (string, bool) {
	if r.music == nil || strings.TrimSpace(name) == "" {
		return "", false
	}
	resp, err := r.music.SearchArtist(ctx, name)
	if err != nil {
		r.logger.Debug("artist search failed", logging.String("artist", name), logging.Error(err))
		return "", false
	}
	if len(resp.Artists) == 0 {
		return "", false
	}

	wanted := NormalizeTitle(name)
	for _, artist := range resp.Artists {
		if NormalizeTitle(artist.Name) == wanted {
			return artist.ID, true
		}
	}
	for _, artist := range resp.Artists {
		if fuzzy.MatchNormalizedFold(wanted, NormalizeTitle(artist.Name)) {
			return artist.ID, true
		}
	}
	return resp.Artists[0].ID, true
}

// pickResult chooses a search match: the first exact-year match among
// fuzzy title candidates, else the best fuzzy candidate, else the top
// raw result.
func pickResult(results []tmdb.Result, title string, year int) (tmdb.Result, bool) {
	if len(results) == 0 {
		return tmdb.Result{}, false
	}

	wanted := NormalizeTitle(title)
	candidates := results[:0:0]
	for _, result := range results {
		if fuzzy.MatchNormalizedFold(wanted, NormalizeTitle(resultTitle(result))) {
			candidates = append(candidates, result)
		}
	}
	if len(candidates) == 0 {
		return results[0], true
	}
	if year > 0 {
		for _, result := range candidates {
			if resultYear(result) == year {
				return result, true
			}
		}
	}
	return candidates[0], true
}

func resultTitle(result tmdb.Result) string {
	if result.Title != "" {
		return result.Title
	}
	return result.Name
}

func resultYear(result tmdb.Result) int {
	if result.ReleaseDate != "" {
		return ReleaseYear(result.ReleaseDate)
	}
	return ReleaseYear(result.FirstAirDate)
}
