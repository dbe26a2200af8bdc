package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const itemColumns = "id, provider, provider_kind, library, kind, title, year, series_title, season, episode, artist, album, track, external_id, alt_external_id, bitrate, artwork_url, created_at, updated_at"

// InsertOwnedItem persists a newly scanned owned item and fills in its ID
// and timestamps.
func (s *Store) InsertOwnedItem(ctx context.Context, item *OwnedItem) error {
	if item == nil {
		return errors.New("item is nil")
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.ProviderKind == "" {
		item.ProviderKind = ProviderServer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn().ExecContext(
		ctx,
		`INSERT INTO owned_items (
            provider, provider_kind, library, kind, title, year, series_title,
            season, episode, artist, album, track, external_id, alt_external_id,
            bitrate, artwork_url, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Provider,
		string(item.ProviderKind),
		item.Library,
		string(item.Kind),
		item.Title,
		item.Year,
		item.SeriesTitle,
		item.Season,
		item.Episode,
		item.Artist,
		item.Album,
		item.Track,
		item.ExternalID,
		item.AltExternalID,
		item.Bitrate,
		item.ArtworkURL,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("insert owned item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	item.ID = id
	return nil
}

// OwnedItems returns owned items matching the filter, ordered by ID.
func (s *Store) OwnedItems(ctx context.Context, filter ItemFilter) ([]OwnedItem, error) {
	where, args := filterClause(filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn().QueryContext(ctx, `SELECT `+itemColumns+` FROM owned_items`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query owned items: %w", err)
	}
	defer rows.Close()

	var items []OwnedItem
	for rows.Next() {
		var (
			item       OwnedItem
			kind       string
			provKind   string
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(
			&item.ID,
			&item.Provider,
			&provKind,
			&item.Library,
			&kind,
			&item.Title,
			&item.Year,
			&item.SeriesTitle,
			&item.Season,
			&item.Episode,
			&item.Artist,
			&item.Album,
			&item.Track,
			&item.ExternalID,
			&item.AltExternalID,
			&item.Bitrate,
			&item.ArtworkURL,
			&createdRaw,
			&updatedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan owned item: %w", err)
		}
		item.Kind = MediaKind(kind)
		item.ProviderKind = ProviderKind(provKind)
		item.CreatedAt = parseTime(createdRaw)
		item.UpdatedAt = parseTime(updatedRaw)
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountOwnedItems returns the number of owned items matching the filter.
// The batch runner compares this against a record's stored owned count to
// decide whether a unit may be skipped.
func (s *Store) CountOwnedItems(ctx context.Context, filter ItemFilter) (int, error) {
	where, args := filterClause(filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	row := s.conn().QueryRowContext(ctx, `SELECT COUNT(1) FROM owned_items`+where, args...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count owned items: %w", err)
	}
	return count, nil
}

// SetItemExternalID writes a resolved external identifier back onto an
// owned item so later runs skip the resolution chain.
func (s *Store) SetItemExternalID(ctx context.Context, id int64, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn().ExecContext(
		ctx,
		`UPDATE owned_items SET external_id = ?, updated_at = ? WHERE id = ?`,
		externalID, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set item external id: %w", err)
	}
	return nil
}

// SetItemArtwork writes a resolved artwork URL back onto an owned item.
func (s *Store) SetItemArtwork(ctx context.Context, id int64, artworkURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn().ExecContext(
		ctx,
		`UPDATE owned_items SET artwork_url = ?, updated_at = ? WHERE id = ?`,
		artworkURL, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set item artwork: %w", err)
	}
	return nil
}

func filterClause(filter ItemFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Provider != "" {
		clauses = append(clauses, "provider = ?")
		args = append(args, filter.Provider)
	}
	if filter.Library != "" {
		clauses = append(clauses, "library = ?")
		args = append(args, filter.Library)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.SeriesTitle != "" {
		clauses = append(clauses, "series_title = ?")
		args = append(args, filter.SeriesTitle)
	}
	if filter.Artist != "" {
		clauses = append(clauses, "artist = ?")
		args = append(args, filter.Artist)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
