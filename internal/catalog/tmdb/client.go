package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lacuna/internal/catalog"
	"lacuna/internal/logging"
	"lacuna/internal/ratelimit"
)

// seasonBatchLimit caps how many seasons one details call may append.
const seasonBatchLimit = 20

// Options describes TMDB client construction parameters.
type Options struct {
	APIKey      string
	BaseURL     string
	Language    string
	CacheTTL    time.Duration
	MaxInFlight int
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Limiter     ratelimit.Limiter
}

// Client provides typed access to the TMDB API. One instance serves all
// callers; its cache and limiter state are shared.
type Client struct {
	fetcher  *catalog.Fetcher
	apiKey   string
	language string
	logger   *slog.Logger
}

// New creates a TMDB client. TMDB tolerates bursts, so the default limiter
// is a sliding window of 40 dispatches per 10 seconds.
func New(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewSlidingWindow(40, 10*time.Second, nil)
	}
	fetcher, err := catalog.NewFetcher(catalog.FetcherOptions{
		BaseURL:     opts.BaseURL,
		Limiter:     limiter,
		CacheTTL:    opts.CacheTTL,
		MaxInFlight: opts.MaxInFlight,
		Timeout:     opts.Timeout,
		HTTPClient:  opts.HTTPClient,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		fetcher:  fetcher,
		apiKey:   apiKey,
		language: strings.TrimSpace(opts.Language),
		logger:   logging.NewComponentLogger(opts.Logger, "tmdb"),
	}, nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

// SearchMovie searches TMDB movies by title, optionally pinned to a year.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := c.params()
	params.Set("query", query)
	if year > 0 {
		params.Set("primary_release_year", strconv.Itoa(year))
	}
	var payload SearchResponse
	if err := c.fetcher.GetJSON(ctx, "/search/movie", params, &payload); err != nil {
		return nil, fmt.Errorf("tmdb movie search: %w", err)
	}
	return &payload, nil
}

// SearchTV searches TMDB TV shows by title, optionally pinned to a year.
func (c *Client) SearchTV(ctx context.Context, query string, year int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := c.params()
	params.Set("query", query)
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}
	var payload SearchResponse
	if err := c.fetcher.GetJSON(ctx, "/search/tv", params, &payload); err != nil {
		return nil, fmt.Errorf("tmdb tv search: %w", err)
	}
	return &payload, nil
}

// FindByIMDbID resolves an IMDb cross-reference ID to TMDB entities.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (*FindResponse, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := c.params()
	params.Set("external_source", "imdb_id")
	var payload FindResponse
	if err := c.fetcher.GetJSON(ctx, "/find/"+url.PathEscape(imdbID), params, &payload); err != nil {
		return nil, fmt.Errorf("tmdb find by imdb id: %w", err)
	}
	return &payload, nil
}

// MovieDetails fetches movie details by TMDB ID, including collection
// membership.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*Movie, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload Movie
	endpoint := fmt.Sprintf("/movie/%d", movieID)
	if err := c.fetcher.GetJSON(ctx, endpoint, c.params(), &payload); err != nil {
		return nil, fmt.Errorf("tmdb movie details: %w", err)
	}
	return &payload, nil
}

// CollectionDetails fetches a collection's member list by TMDB ID.
func (c *Client) CollectionDetails(ctx context.Context, collectionID int64) (*Collection, error) {
	if collectionID <= 0 {
		return nil, errors.New("collection id must be positive")
	}
	var payload Collection
	endpoint := fmt.Sprintf("/collection/%d", collectionID)
	if err := c.fetcher.GetJSON(ctx, endpoint, c.params(), &payload); err != nil {
		return nil, fmt.Errorf("tmdb collection details: %w", err)
	}
	return &payload, nil
}

// TVDetails fetches TV show details by TMDB ID, including the season
// inventory.
func (c *Client) TVDetails(ctx context.Context, showID int64) (*TVShow, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload TVShow
	endpoint := fmt.Sprintf("/tv/%d", showID)
	if err := c.fetcher.GetJSON(ctx, endpoint, c.params(), &payload); err != nil {
		return nil, fmt.Errorf("tmdb tv details: %w", err)
	}
	return &payload, nil
}

// Season fetches one season's episode list.
func (c *Client) Season(ctx context.Context, showID int64, seasonNumber int) (*Season, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	if seasonNumber < 0 {
		return nil, errors.New("season number must not be negative")
	}
	var payload Season
	endpoint := fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber)
	if err := c.fetcher.GetJSON(ctx, endpoint, c.params(), &payload); err != nil {
		return nil, fmt.Errorf("tmdb season fetch: %w", err)
	}
	return &payload, nil
}

// Seasons fetches multiple seasons of a show, batching up to 20 season
// payloads per details call via append_to_response and chunking beyond
// that. When a batch call fails, the chunk falls back to per-season
// fetches so one bad batch never loses a whole show.
func (c *Client) Seasons(ctx context.Context, showID int64, numbers []int) (map[int]*Season, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	seasons := make(map[int]*Season, len(numbers))
	for start := 0; start < len(numbers); start += seasonBatchLimit {
		end := start + seasonBatchLimit
		if end > len(numbers) {
			end = len(numbers)
		}
		chunk := numbers[start:end]
		batch, err := c.seasonBatch(ctx, showID, chunk)
		if err != nil {
			c.logger.Warn("season batch fetch failed, falling back to per-season calls",
				logging.Int64("show_id", showID),
				logging.Int("seasons", len(chunk)),
				logging.Error(err),
			)
			batch, err = c.seasonsOneByOne(ctx, showID, chunk)
			if err != nil {
				return nil, err
			}
		}
		for number, season := range batch {
			seasons[number] = season
		}
	}
	return seasons, nil
}

func (c *Client) seasonBatch(ctx context.Context, showID int64, numbers []int) (map[int]*Season, error) {
	keys := make([]string, 0, len(numbers))
	for _, number := range numbers {
		keys = append(keys, fmt.Sprintf("season/%d", number))
	}
	params := c.params()
	params.Set("append_to_response", strings.Join(keys, ","))

	var raw map[string]json.RawMessage
	endpoint := fmt.Sprintf("/tv/%d", showID)
	if err := c.fetcher.GetJSON(ctx, endpoint, params, &raw); err != nil {
		return nil, fmt.Errorf("tmdb season batch: %w", err)
	}

	seasons := make(map[int]*Season, len(numbers))
	for _, number := range numbers {
		payload, ok := raw[fmt.Sprintf("season/%d", number)]
		if !ok {
			continue
		}
		var season Season
		if err := json.Unmarshal(payload, &season); err != nil {
			return nil, fmt.Errorf("decode season %d: %w", number, err)
		}
		seasons[number] = &season
	}
	return seasons, nil
}

func (c *Client) seasonsOneByOne(ctx context.Context, showID int64, numbers []int) (map[int]*Season, error) {
	seasons := make(map[int]*Season, len(numbers))
	for _, number := range numbers {
		season, err := c.Season(ctx, showID, number)
		if err != nil {
			// Best effort per season; skip the ones the catalog cannot serve.
			c.logger.Warn("season fetch failed",
				logging.Int64("show_id", showID),
				logging.Int("season", number),
				logging.Error(err),
			)
			continue
		}
		seasons[number] = season
	}
	return seasons, nil
}

// PurgeCache clears the client's response cache.
func (c *Client) PurgeCache() {
	c.fetcher.PurgeCache()
}
