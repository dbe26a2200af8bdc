package musicbrainz

// Artist represents a MusicBrainz artist search match.
type Artist struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SortName       string `json:"sort-name"`
	Score          int    `json:"score"`
	Disambiguation string `json:"disambiguation"`
}

// ArtistSearchResponse models the artist search payload.
type ArtistSearchResponse struct {
	Count   int      `json:"count"`
	Offset  int      `json:"offset"`
	Artists []Artist `json:"artists"`
}

// ReleaseGroup represents one release group (album, EP, single) of an
// artist's discography.
type ReleaseGroup struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	PrimaryType      string   `json:"primary-type"`
	SecondaryTypes   []string `json:"secondary-types"`
	FirstReleaseDate string   `json:"first-release-date"`
}

// releaseGroupBrowseResponse models one page of a release-group browse.
type releaseGroupBrowseResponse struct {
	ReleaseGroupCount  int            `json:"release-group-count"`
	ReleaseGroupOffset int            `json:"release-group-offset"`
	ReleaseGroups      []ReleaseGroup `json:"release-groups"`
}

// Medium is one physical or digital medium of a release.
type Medium struct {
	Format     string  `json:"format"`
	TrackCount int     `json:"track-count"`
	Tracks     []Track `json:"tracks"`
}

// Track is one recording position on a medium.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Release is a concrete issuance of a release group.
type Release struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Status string   `json:"status"`
	Date   string   `json:"date"`
	Media  []Medium `json:"media"`
}

// releaseBrowseResponse models one page of a release browse.
type releaseBrowseResponse struct {
	ReleaseCount int       `json:"release-count"`
	Releases     []Release `json:"releases"`
}
