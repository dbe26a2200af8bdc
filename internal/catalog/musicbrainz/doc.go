// Package musicbrainz provides typed operations against the MusicBrainz
// API: artist search, paginated release-group browsing, and release
// lookups. MusicBrainz enforces a strict one-request-per-second cap, so
// the client paces dispatches evenly and retries transient failures with
// exponential backoff.
package musicbrainz
