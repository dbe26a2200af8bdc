package musicbrainz

import (
	"context"
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

// browsePageSize is the largest page MusicBrainz serves per browse call.
const browsePageSize = 100

// Options describes MusicBrainz client construction parameters.
type Options struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond int
	MaxRetries        int
	CacheTTL          time.Duration
	Timeout           time.Duration
	HTTPClient        *http.Client
	Logger            *slog.Logger
	Limiter           ratelimit.Limiter
}

// Client provides typed access to the MusicBrainz API.
type Client struct {
	fetcher    *catalog.Fetcher
	maxRetries int
	logger     *slog.Logger
}

// New creates a MusicBrainz client. The service rejects anonymous traffic,
// so a contact-bearing user agent is mandatory.
func New(opts Options) (*Client, error) {
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		return nil, errors.New("musicbrainz user agent required")
	}
	perSecond := opts.RequestsPerSecond
	if perSecond < 1 {
		perSecond = 1
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewPaced(perSecond, nil)
	}
	fetcher, err := catalog.NewFetcher(catalog.FetcherOptions{
		BaseURL:  opts.BaseURL,
		Limiter:  limiter,
		CacheTTL: opts.CacheTTL,
		Timeout:  opts.Timeout,
		Headers:  map[string]string{"User-Agent": userAgent},
		// The per-second pace already serializes traffic; a deep in-flight
		// queue would only hide latency problems.
		MaxInFlight: 2,
		HTTPClient:  opts.HTTPClient,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		fetcher:    fetcher,
		maxRetries: maxRetries,
		logger:     logging.NewComponentLogger(opts.Logger, "musicbrainz"),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	return catalog.WithRetry(ctx, c.logger, c.maxRetries, func() error {
		return c.fetcher.GetJSON(ctx, endpoint, params, out)
	})
}

// SearchArtist searches MusicBrainz artists by name.
func (c *Client) SearchArtist(ctx context.Context, name string) (*ArtistSearchResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("artist name must not be empty")
	}
	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("query", `artist:`+strconv.Quote(name))
	params.Set("limit", "10")

	var payload ArtistSearchResponse
	if err := c.getJSON(ctx, "/artist", params, &payload); err != nil {
		return nil, fmt.Errorf("musicbrainz artist search: %w", err)
	}
	return &payload, nil
}

// ReleaseGroupsByArtist browses every release group credited to an artist,
// following pagination at the maximum page size.
func (c *Client) ReleaseGroupsByArtist(ctx context.Context, artistID string) ([]ReleaseGroup, error) {
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return nil, errors.New("artist id must not be empty")
	}

	var groups []ReleaseGroup
	for offset := 0; ; offset += browsePageSize {
		params := url.Values{}
		params.Set("fmt", "json")
		params.Set("artist", artistID)
		params.Set("limit", strconv.Itoa(browsePageSize))
		params.Set("offset", strconv.Itoa(offset))

		var page releaseGroupBrowseResponse
		if err := c.getJSON(ctx, "/release-group", params, &page); err != nil {
			return nil, fmt.Errorf("musicbrainz release groups (offset %d): %w", offset, err)
		}
		groups = append(groups, page.ReleaseGroups...)
		if len(page.ReleaseGroups) < browsePageSize || len(groups) >= page.ReleaseGroupCount {
			break
		}
	}
	return groups, nil
}

// ReleasesByReleaseGroup browses the releases of one release group with
// their media formats. Used for the opt-in vinyl-only exclusion check.
func (c *Client) ReleasesByReleaseGroup(ctx context.Context, releaseGroupID string) ([]Release, error) {
	releaseGroupID = strings.TrimSpace(releaseGroupID)
	if releaseGroupID == "" {
		return nil, errors.New("release group id must not be empty")
	}
	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("release-group", releaseGroupID)
	params.Set("inc", "media")
	params.Set("limit", strconv.Itoa(browsePageSize))

	var payload releaseBrowseResponse
	if err := c.getJSON(ctx, "/release", params, &payload); err != nil {
		return nil, fmt.Errorf("musicbrainz releases: %w", err)
	}
	return payload.Releases, nil
}

// ReleaseTracks fetches one release with its recordings so callers can
// diff owned tracks against the catalog track list.
func (c *Client) ReleaseTracks(ctx context.Context, releaseID string) (*Release, error) {
	releaseID = strings.TrimSpace(releaseID)
	if releaseID == "" {
		return nil, errors.New("release id must not be empty")
	}
	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("inc", "recordings")

	var payload Release
	if err := c.getJSON(ctx, "/release/"+url.PathEscape(releaseID), params, &payload); err != nil {
		return nil, fmt.Errorf("musicbrainz release lookup: %w", err)
	}
	return &payload, nil
}

// HasNonVinylRelease reports whether any release of a release group was
// issued on something other than vinyl. Release groups with no media
// information at all are treated as non-vinyl so sparse catalog data never
// hides a release group.
func (c *Client) HasNonVinylRelease(ctx context.Context, releaseGroupID string) (bool, error) {
	releases, err := c.ReleasesByReleaseGroup(ctx, releaseGroupID)
	if err != nil {
		return false, err
	}
	sawFormat := false
	for _, release := range releases {
		for _, medium := range release.Media {
			format := strings.ToLower(strings.TrimSpace(medium.Format))
			if format == "" {
				continue
			}
			sawFormat = true
			if !strings.Contains(format, "vinyl") {
				return true, nil
			}
		}
	}
	return !sawFormat, nil
}

// PurgeCache clears the client's response cache.
func (c *Client) PurgeCache() {
	c.fetcher.PurgeCache()
}
