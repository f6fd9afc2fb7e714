package models

// RecommendedMovie is the fully resolved movie shape returned to callers.
type RecommendedMovie struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Runtime     *int     `json:"runtime"`
	Overview    string   `json:"overview"`
	PosterURL   string   `json:"poster_url"`
	VoteAverage float64  `json:"vote_average"`
	VoteCount   int      `json:"vote_count"`
	Language    string   `json:"language"`
	Genres      []string `json:"genres"`
}

// PickRequest is the recommendation call input.
type PickRequest struct {
	SessionID string     `json:"session_id"`
	Filters   FilterSpec `json:"filters"`
}

// PickResponse wraps a single recommendation. Movie is null when nothing
// matched; Message then explains why.
type PickResponse struct {
	Movie   *RecommendedMovie `json:"movie"`
	Message string            `json:"message,omitempty"`
}

// BrowseRequest is the batch browse call input.
type BrowseRequest struct {
	Filters    FilterSpec `json:"filters"`
	Limit      int        `json:"limit,omitempty"`
	SessionID  string     `json:"session_id,omitempty"`
	ExcludeIDs []int      `json:"exclude_ids,omitempty"`
}

// BrowseResponse wraps the browse result list.
type BrowseResponse struct {
	Movies []RecommendedMovie `json:"movies"`
	Count  int                `json:"count"`
}
