package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const recordColumns = "id, domain, unit_key, unit_title, scope, external_id, total_count, owned_count, scanned_count, missing_json, missing_seasons_json, percentage, artwork_url, status, analyzed_at"

// UpsertRecord writes a completeness record, replacing any previous record
// for the same (domain, unit, scope). The missing lists are JSON encoded
// here, at the persistence boundary.
func (s *Store) UpsertRecord(ctx context.Context, record *CompletenessRecord) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.AnalyzedAt.IsZero() {
		record.AnalyzedAt = time.Now().UTC()
	}

	missing := record.Missing
	if missing == nil {
		missing = []MissingItem{}
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return fmt.Errorf("marshal missing items: %w", err)
	}
	seasons := record.MissingSeasons
	if seasons == nil {
		seasons = []int{}
	}
	seasonsJSON, err := json.Marshal(seasons)
	if err != nil {
		return fmt.Errorf("marshal missing seasons: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn().ExecContext(
		ctx,
		`INSERT INTO completeness_records (
            domain, unit_key, unit_title, scope, external_id, total_count,
            owned_count, scanned_count, missing_json, missing_seasons_json,
            percentage, artwork_url, status, analyzed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(domain, unit_key, scope) DO UPDATE SET
            unit_title = excluded.unit_title,
            external_id = excluded.external_id,
            total_count = excluded.total_count,
            owned_count = excluded.owned_count,
            scanned_count = excluded.scanned_count,
            missing_json = excluded.missing_json,
            missing_seasons_json = excluded.missing_seasons_json,
            percentage = excluded.percentage,
            artwork_url = excluded.artwork_url,
            status = excluded.status,
            analyzed_at = excluded.analyzed_at`,
		string(record.Domain),
		record.UnitKey,
		record.UnitTitle,
		record.Scope,
		record.ExternalID,
		record.TotalCount,
		record.OwnedCount,
		record.ScannedCount,
		string(missingJSON),
		string(seasonsJSON),
		record.Percentage,
		record.ArtworkURL,
		record.Status,
		formatTime(record.AnalyzedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert completeness record: %w", err)
	}
	return nil
}

// Record fetches the completeness record for one (domain, unit, scope),
// or nil when none exists.
func (s *Store) Record(ctx context.Context, domain Domain, unitKey, scope string) (*CompletenessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.conn().QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM completeness_records WHERE domain = ? AND unit_key = ? AND scope = ?`,
		string(domain), unitKey, scope,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completeness record: %w", err)
	}
	return record, nil
}

// RecordsByDomain returns every stored record for a domain ordered by
// unit title.
func (s *Store) RecordsByDomain(ctx context.Context, domain Domain) ([]*CompletenessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn().QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM completeness_records WHERE domain = ? ORDER BY unit_title, unit_key`,
		string(domain),
	)
	if err != nil {
		return nil, fmt.Errorf("query completeness records: %w", err)
	}
	defer rows.Close()

	var records []*CompletenessRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteRecords removes every record for a domain and reports how many
// were deleted. Used by explicit user resets only.
func (s *Store) DeleteRecords(ctx context.Context, domain Domain) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn().ExecContext(ctx, `DELETE FROM completeness_records WHERE domain = ?`, string(domain))
	if err != nil {
		return 0, fmt.Errorf("delete completeness records: %w", err)
	}
	return res.RowsAffected()
}

// Stats aggregates the stored completeness records.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &Stats{}
	row := s.conn().QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
               COALESCE(AVG(percentage), 0)
        FROM completeness_records`,
		StatusComplete, StatusIncomplete, StatusUnmatched,
	)
	if err := row.Scan(&stats.Records, &stats.Complete, &stats.Incomplete, &stats.Unmatched, &stats.AveragePercentage); err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}

	rows, err := s.conn().QueryContext(ctx, `SELECT missing_json FROM completeness_records`)
	if err != nil {
		return nil, fmt.Errorf("query missing lists: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan missing list: %w", err)
		}
		var missing []MissingItem
		if err := json.Unmarshal([]byte(raw), &missing); err != nil {
			continue
		}
		stats.MissingItems += len(missing)
	}
	return stats, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*CompletenessRecord, error) {
	var (
		record      CompletenessRecord
		domain      string
		missingRaw  string
		seasonsRaw  string
		analyzedRaw string
	)
	if err := scanner.Scan(
		&record.ID,
		&domain,
		&record.UnitKey,
		&record.UnitTitle,
		&record.Scope,
		&record.ExternalID,
		&record.TotalCount,
		&record.OwnedCount,
		&record.ScannedCount,
		&missingRaw,
		&seasonsRaw,
		&record.Percentage,
		&record.ArtworkURL,
		&record.Status,
		&analyzedRaw,
	); err != nil {
		return nil, err
	}

	record.Domain = Domain(domain)
	record.AnalyzedAt = parseTime(analyzedRaw)
	// Malformed persisted lists decode to empty rather than failing reads.
	if err := json.Unmarshal([]byte(missingRaw), &record.Missing); err != nil {
		record.Missing = nil
	}
	if err := json.Unmarshal([]byte(seasonsRaw), &record.MissingSeasons); err != nil {
		record.MissingSeasons = nil
	}
	return &record, nil
}
