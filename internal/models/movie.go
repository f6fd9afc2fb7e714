package models

import "time"

// Movie represents a movie row as stored in our database.
type Movie struct {
	ID               int       `json:"id"`
	TMDBId           int       `json:"tmdb_id"`
	Title            string    `json:"title"`
	Overview         string    `json:"overview"`
	ReleaseDate      string    `json:"release_date"`
	Runtime          *int      `json:"runtime"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	Popularity       float64   `json:"popularity"`
	Adult            bool      `json:"adult"`
	PosterPath       string    `json:"poster_path"`
	BackdropPath     string    `json:"backdrop_path"`
	OriginalLanguage string    `json:"original_language"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Year returns the release year, or 0 when the release date is unknown.
func (m *Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	t, err := time.Parse("2006-01-02", m.ReleaseDate)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Genre represents a movie genre.
type Genre struct {
	ID     int    `json:"id"`
	TMDBId int    `json:"tmdb_id"`
	Name   string `json:"name"`
}

// Era identifies one of the fixed release-year buckets.
type Era string

const (
	Era1980s Era = "1980-1989"
	Era1990s Era = "1990-1999"
	Era2000s Era = "2000-2009"
	Era2010s Era = "2010-2019"
	Era2020s Era = "2020-present"
)

// YearRange maps the era to an inclusive year range. The most recent bucket
// is open-ended: its upper bound is 0.
func (e Era) YearRange() (from, to int, ok bool) {
	switch e {
	case Era1980s:
		return 1980, 1989, true
	case Era1990s:
		return 1990, 1999, true
	case Era2000s:
		return 2000, 2009, true
	case Era2010s:
		return 2010, 2019, true
	case Era2020s:
		return 2020, 0, true
	}
	return 0, 0, false
}

// FilterSpec holds the caller's soft filters. Every field is optional;
// absence means no constraint on that dimension.
type FilterSpec struct {
	GenreIDs   []int    `json:"genre_ids,omitempty"`
	Era        Era      `json:"era,omitempty"`
	Languages  []string `json:"languages,omitempty"`
	MinRuntime *int     `json:"min_runtime,omitempty"`
	MaxRuntime *int     `json:"max_runtime,omitempty"`
}

// PickRecord is the append-only log entry of a completed recommendation.
type PickRecord struct {
	ID        int        `json:"id"`
	SessionID string     `json:"session_id"`
	MovieID   int        `json:"movie_id"`
	Filters   FilterSpec `json:"filters"`
	CreatedAt time.Time  `json:"created_at"`
}

// WeightedCandidate pairs a movie with its computed sampling weight and
// resolved genre names for the duration of one selection call.
type WeightedCandidate struct {
	Movie  Movie
	Weight float64
	Genres []string
}
