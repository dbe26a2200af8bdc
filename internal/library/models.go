package library

import "time"

// MediaKind identifies what an owned item is.
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindEpisode MediaKind = "episode"
	KindTrack   MediaKind = "track"
)

// Domain identifies which analyzer produced a completeness record.
type Domain string

const (
	DomainSeries      Domain = "series"
	DomainCollection  Domain = "collection"
	DomainDiscography Domain = "discography"
	DomainAlbum       Domain = "album"
)

// ProviderKind distinguishes providers that serve embedded metadata from
// plain local folders. Local-folder items get resolved artwork pushed back.
type ProviderKind string

const (
	ProviderServer ProviderKind = "server"
	ProviderLocal  ProviderKind = "local"
)

// Record statuses. Untracked marks a unit that was tracked once but no
// longer qualifies, such as a collection reduced to a single released
// film.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
	StatusUnmatched  = "unmatched"
	StatusUntracked  = "untracked"
)

// OwnedItem is one locally owned unit (movie, episode, or track) as
// reported by a library provider. The scanning collaborator creates and
// updates these; the analysis engine reads them and only writes back
// resolved external IDs and artwork.
type OwnedItem struct {
	ID            int64
	Provider      string
	ProviderKind  ProviderKind
	Library       string
	Kind          MediaKind
	Title         string
	Year          int
	SeriesTitle   string
	Season        int
	Episode       int
	Artist        string
	Album         string
	Track         int
	ExternalID    string
	AltExternalID string
	Bitrate       int64
	ArtworkURL    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ItemFilter restricts owned-item queries. Zero-valued fields match
// everything.
type ItemFilter struct {
	Provider    string
	Library     string
	Kind        MediaKind
	SeriesTitle string
	Artist      string
}

// MissingItem identifies one catalog entry the library lacks. Only the
// fields relevant to the record's domain are populated.
type MissingItem struct {
	ExternalID string `json:"external_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Year       int    `json:"year,omitempty"`
	Season     int    `json:"season,omitempty"`
	Episode    int    `json:"episode,omitempty"`
	AirDate    string `json:"air_date,omitempty"`
	Category   string `json:"category,omitempty"`
	Position   int    `json:"position,omitempty"`
}

// CompletenessRecord is the persisted analysis result for one logical
// unit within one scope. Missing lists are typed in memory and JSON
// encoded only at this store boundary.
type CompletenessRecord struct {
	ID             int64
	Domain         Domain
	UnitKey        string
	UnitTitle      string
	Scope          string
	ExternalID     string
	TotalCount int
	OwnedCount int
	// ScannedCount is the unit's owned-item count at scan time, before
	// catalog matching. Freshness skips compare against it.
	ScannedCount   int
	Missing        []MissingItem
	MissingSeasons []int
	Percentage     int
	ArtworkURL     string
	Status         string
	AnalyzedAt     time.Time
}

// Stats aggregates the stored completeness records.
type Stats struct {
	Records           int
	Complete          int
	Incomplete        int
	Unmatched         int
	MissingItems      int
	AveragePercentage float64
}
