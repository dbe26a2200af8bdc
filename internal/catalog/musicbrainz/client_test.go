package musicbrainz_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"lacuna/internal/catalog/musicbrainz"
	"lacuna/internal/ratelimit"
)

type nopLimiter struct{}

func (nopLimiter) Wait(context.Context) error { return nil }

func newTestClient(t *testing.T, serverURL string) *musicbrainz.Client {
	t.Helper()
	client, err := musicbrainz.New(musicbrainz.Options{
		BaseURL:   serverURL,
		UserAgent: "lacuna-test/1.0 (test@example.com)",
		CacheTTL:  time.Hour,
		Timeout:   5 * time.Second,
		Limiter:   nopLimiter{},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

var _ ratelimit.Limiter = nopLimiter{}

func TestNewRequiresUserAgent(t *testing.T) {
	if _, err := musicbrainz.New(musicbrainz.Options{BaseURL: "https://example.com"}); err == nil {
		t.Fatal("expected error when user agent missing")
	}
}

func TestSearchArtistSendsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "lacuna-test/1.0 (test@example.com)" {
			t.Fatalf("unexpected user agent %q", ua)
		}
		if r.URL.Query().Get("fmt") != "json" {
			t.Fatalf("expected fmt=json, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"count":1,"artists":[{"id":"mbid-1","name":"Radiohead","score":100}]}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL)
	resp, err := client.SearchArtist(context.Background(), "Radiohead")
	if err != nil {
		t.Fatalf("SearchArtist returned error: %v", err)
	}
	if len(resp.Artists) != 1 || resp.Artists[0].ID != "mbid-1" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestReleaseGroupsByArtistFollowsPagination(t *testing.T) {
	const total = 150
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		count := 100
		if offset+count > total {
			count = total - offset
		}
		groups := make([]map[string]any, 0, count)
		for i := 0; i < count; i++ {
			groups = append(groups, map[string]any{
				"id":           fmt.Sprintf("rg-%d", offset+i),
				"title":        fmt.Sprintf("Album %d", offset+i),
				"primary-type": "Album",
			})
		}
		payload := map[string]any{
			"release-group-count":  total,
			"release-group-offset": offset,
			"release-groups":       groups,
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL)
	groups, err := client.ReleaseGroupsByArtist(context.Background(), "mbid-1")
	if err != nil {
		t.Fatalf("ReleaseGroupsByArtist returned error: %v", err)
	}
	if len(groups) != total {
		t.Fatalf("expected %d release groups, got %d", total, len(groups))
	}
	if groups[149].ID != "rg-149" {
		t.Fatalf("unexpected last group %#v", groups[149])
	}
}

func TestHasNonVinylRelease(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "vinyl only",
			body: `{"release-count":1,"releases":[{"id":"r1","media":[{"format":"12\" Vinyl"}]}]}`,
			want: false,
		},
		{
			name: "cd issue exists",
			body: `{"release-count":2,"releases":[{"id":"r1","media":[{"format":"Vinyl"}]},{"id":"r2","media":[{"format":"CD"}]}]}`,
			want: true,
		},
		{
			name: "no media info",
			body: `{"release-count":1,"releases":[{"id":"r1","media":[]}]}`,
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)

			client := newTestClient(t, server.URL)
			got, err := client.HasNonVinylRelease(context.Background(), "rg-1")
			if err != nil {
				t.Fatalf("HasNonVinylRelease returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("HasNonVinylRelease=%v want %v", got, tc.want)
			}
		})
	}
}

func TestTransientServerErrorIsRetried(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"count":0,"artists":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := musicbrainz.New(musicbrainz.Options{
		BaseURL:    server.URL,
		UserAgent:  "lacuna-test/1.0 (test@example.com)",
		MaxRetries: 2,
		CacheTTL:   time.Hour,
		Timeout:    5 * time.Second,
		Limiter:    nopLimiter{},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.SearchArtist(context.Background(), "Nobody"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits.Load())
	}
}
