package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lacuna/internal/logging"
	"lacuna/internal/ratelimit"
)

const maxResponseBytes = 8 << 20

// Fetcher composes response caching, rate limiting, an in-flight request
// cap, and a hard per-request timeout around raw HTTP GETs. Cache hits
// bypass both the network and the limiter. One Fetcher instance serves all
// callers of a given catalog.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	cache      *Cache
	inflight   chan struct{}
	timeout    time.Duration
	headers    map[string]string
	logger     *slog.Logger
}

// FetcherOptions describes Fetcher construction parameters.
type FetcherOptions struct {
	BaseURL     string
	Limiter     ratelimit.Limiter
	CacheTTL    time.Duration
	MaxInFlight int
	Timeout     time.Duration
	Headers     map[string]string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// NewFetcher creates a Fetcher for one catalog service.
func NewFetcher(opts FetcherOptions) (*Fetcher, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	if opts.MaxInFlight < 1 {
		opts.MaxInFlight = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	headers := make(map[string]string, len(opts.Headers))
	for key, value := range opts.Headers {
		headers[key] = value
	}
	return &Fetcher{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    opts.Limiter,
		cache:      NewCache(opts.CacheTTL),
		inflight:   make(chan struct{}, opts.MaxInFlight),
		timeout:    opts.Timeout,
		headers:    headers,
		logger:     logging.NewComponentLogger(opts.Logger, "catalog"),
	}, nil
}

// GetJSON fetches endpoint with params and decodes the response into out.
// Successful responses are cached for the configured TTL.
func (f *Fetcher) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	key := CacheKey(endpoint, params)
	if body, ok := f.cache.Get(key); ok {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode cached response for %s: %w", endpoint, err)
		}
		return nil
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("await rate limiter slot: %w", err)
		}
	}

	select {
	case f.inflight <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-f.inflight }()

	body, err := f.do(ctx, endpoint, params)
	if err != nil {
		return err
	}

	f.cache.Put(key, body)
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response for %s: %w", endpoint, err)
	}
	return nil
}

func (f *Fetcher) do(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	target := f.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	requestStart := time.Now()
	resp, err := f.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%s after %v: %w", endpoint, latency, ErrTimeout)
		}
		return nil, fmt.Errorf("execute request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response for %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{Status: resp.StatusCode, Body: truncate(string(body), 200)}
		f.logger.Debug("catalog request failed",
			logging.String("endpoint", endpoint),
			logging.Int("status", resp.StatusCode),
			logging.Duration("latency", latency),
		)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", endpoint, ErrNotFound)
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, httpErr)
		default:
			return nil, httpErr
		}
	}

	f.logger.Debug("catalog request completed",
		logging.String("endpoint", endpoint),
		logging.Duration("latency", latency),
	)
	return body, nil
}

// PurgeCache clears the response cache.
func (f *Fetcher) PurgeCache() {
	f.cache.Purge()
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
