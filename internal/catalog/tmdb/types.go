package tmdb

// Result represents a single TMDB search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	Popularity   float64 `json:"popularity"`
	VoteCount    int64   `json:"vote_count"`
}

// SearchResponse models the TMDB paginated search response.
type SearchResponse struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// FindResponse models the TMDB /find response for external-ID lookups.
type FindResponse struct {
	MovieResults []Result `json:"movie_results"`
	TVResults    []Result `json:"tv_results"`
}

// CollectionRef is the collection summary embedded in movie details.
type CollectionRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PosterPath string `json:"poster_path"`
}

// Movie captures the TMDB movie details payload.
type Movie struct {
	ID                  int64          `json:"id"`
	Title               string         `json:"title"`
	ReleaseDate         string         `json:"release_date"`
	PosterPath          string         `json:"poster_path"`
	IMDbID              string         `json:"imdb_id"`
	BelongsToCollection *CollectionRef `json:"belongs_to_collection"`
}

// Collection captures a collection's member list.
type Collection struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	PosterPath string   `json:"poster_path"`
	Parts      []Result `json:"parts"`
}

// SeasonRef is the per-season summary embedded in TV details.
type SeasonRef struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
}

// TVShow captures the TMDB TV details payload.
type TVShow struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	FirstAirDate string      `json:"first_air_date"`
	PosterPath   string      `json:"poster_path"`
	Seasons      []SeasonRef `json:"seasons"`
}

// Episode describes a single TMDB episode entry.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// Season captures the full TMDB season payload, episodes included.
type Season struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// imageBaseURL is the TMDB image CDN prefix for artwork references.
const imageBaseURL = "https://image.tmdb.org/t/p/w500"

// ImageURL converts a TMDB poster path into a full artwork URL.
func ImageURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return imageBaseURL + posterPath
}
