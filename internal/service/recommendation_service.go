package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emretalan/muse-db/internal/config"
	"github.com/emretalan/muse-db/internal/models"
)

// CatalogStore is the movie catalog as the engine sees it: filtered candidate
// retrieval plus genre resolution.
type CatalogStore interface {
	FetchCandidates(ctx context.Context, filters models.FilterSpec, excludeIDs []int) ([]models.Movie, error)
	GenresForMovies(ctx context.Context, movieIDs []int) (map[int][]string, error)
	ListGenres(ctx context.Context) ([]models.Genre, error)
	Ping(ctx context.Context) error
}

// PickStore is the session history store: append-only pick records, read back
// for recency exclusion and first-pick detection.
type PickStore interface {
	RecordPick(ctx context.Context, sessionID string, movieID int, filters models.FilterSpec) error
	RecentMovieIDs(ctx context.Context, sessionID string, limit int) ([]int, error)
	HasPicks(ctx context.Context, sessionID string) (bool, error)
}

// RecommendationService runs the selection engine: single weighted pick and
// batch browse over the filtered catalog.
type RecommendationService struct {
	catalog CatalogStore
	picks   PickStore
	redis   *redis.Client
	policy  config.EngineConfig
	genres  GenreCache
	rng     *rand.Rand
}

// NewRecommendationService creates a new RecommendationService. rdb may be
// nil (the service runs without Redis). rng may be nil, in which case the
// process-wide random source is used; tests inject a seeded generator.
func NewRecommendationService(catalog CatalogStore, picks PickStore, rdb *redis.Client, policy config.EngineConfig, rng *rand.Rand) *RecommendationService {
	return &RecommendationService{
		catalog: catalog,
		picks:   picks,
		redis:   rdb,
		policy:  policy,
		rng:     rng,
	}
}

// PickMovie selects one movie for the session: recent picks are excluded,
// candidates are weighted by quality and popularity, a brand-new session is
// biased toward the top of the pool, and the choice is recorded before it is
// returned. A nil movie with a message means nothing matched; that is not an
// error.
func (s *RecommendationService) PickMovie(ctx context.Context, sessionID string, filters models.FilterSpec) (*models.PickResponse, error) {
	// The exclusion set must be in hand before candidates are fetched, or a
	// just-shown movie could resurface.
	excludeIDs, err := s.picks.RecentMovieIDs(ctx, sessionID, s.policy.RecentExcludeLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch recent picks: %w", err)
	}

	candidates, err := s.catalog.FetchCandidates(ctx, filters, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(candidates) == 0 {
		slog.Debug("no candidates matched", "session_id", sessionID)
		return &models.PickResponse{
			Message: "no movies matched your filters, try loosening them",
		}, nil
	}

	weighted, err := s.buildWeighted(ctx, candidates)
	if err != nil {
		return nil, err
	}

	hasPicks, err := s.picks.HasPicks(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("check pick history: %w", err)
	}
	pool := ApplyFirstPickBias(weighted, !hasPicks, s.policy.FirstPickPercentile, s.policy.FirstPickMinPool)

	chosen, ok := SampleWeighted(s.rng, pool)
	if !ok {
		return nil, fmt.Errorf("sampler returned no pick from a pool of %d", len(pool))
	}

	// The record write gates the response: without a durable record the
	// recency exclusion for future calls would be wrong.
	if err := s.picks.RecordPick(ctx, sessionID, chosen.Movie.ID, filters); err != nil {
		return nil, fmt.Errorf("record pick: %w", err)
	}

	slog.Info("movie picked",
		"session_id", sessionID,
		"movie_id", chosen.Movie.ID,
		"pool_size", len(pool),
		"first_pick", !hasPicks,
	)

	movie := s.resolve(chosen.Movie, chosen.Genres)
	return &models.PickResponse{Movie: &movie}, nil
}

// BrowseMovies returns a shuffled batch of candidates. Caller exclusions are
// unioned with the session's recent picks when a session is given. No pick
// record is written.
func (s *RecommendationService) BrowseMovies(ctx context.Context, req models.BrowseRequest) (*models.BrowseResponse, error) {
	excludeIDs := req.ExcludeIDs
	if req.SessionID != "" {
		recent, err := s.picks.RecentMovieIDs(ctx, req.SessionID, s.policy.RecentExcludeLimit)
		if err != nil {
			return nil, fmt.Errorf("fetch recent picks: %w", err)
		}
		excludeIDs = unionIDs(excludeIDs, recent)
	}

	candidates, err := s.catalog.FetchCandidates(ctx, req.Filters, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.policy.DefaultBrowseLimit
	}
	shuffled := ShuffledCopy(s.rng, candidates)
	if len(shuffled) > limit {
		shuffled = shuffled[:limit]
	}

	ids := make([]int, len(shuffled))
	for i, m := range shuffled {
		ids[i] = m.ID
	}
	genreNames, err := s.catalog.GenresForMovies(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve genres: %w", err)
	}

	movies := make([]models.RecommendedMovie, len(shuffled))
	for i, m := range shuffled {
		movies[i] = s.resolve(m, genreNames[m.ID])
	}
	return &models.BrowseResponse{Movies: movies, Count: len(movies)}, nil
}

// ListGenres returns the static genre lookup, sorted by name, from the
// process-wide cache.
func (s *RecommendationService) ListGenres(ctx context.Context) ([]models.Genre, error) {
	return s.genres.Get(ctx, s.catalog)
}

// InvalidateGenres drops the cached genre lookup; called after an admin sync.
func (s *RecommendationService) InvalidateGenres() {
	s.genres.Invalidate()
}

// HealthStatus is the health call output.
type HealthStatus struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Redis     string `json:"redis,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Health reports store reachability.
func (s *RecommendationService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Database:  "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.catalog.Ping(ctx); err != nil {
		status.Status = "error"
		status.Database = err.Error()
	}
	if s.redis != nil {
		status.Redis = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			status.Status = "error"
			status.Redis = err.Error()
		}
	}
	return status
}

// buildWeighted computes weights and attaches genre names, resolved in one
// bulk query for the whole batch.
func (s *RecommendationService) buildWeighted(ctx context.Context, candidates []models.Movie) ([]models.WeightedCandidate, error) {
	ids := make([]int, len(candidates))
	for i, m := range candidates {
		ids[i] = m.ID
	}
	genreNames, err := s.catalog.GenresForMovies(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve genres: %w", err)
	}

	weighted := make([]models.WeightedCandidate, len(candidates))
	for i, m := range candidates {
		w := Weight(m)
		if w < 0 {
			return nil, fmt.Errorf("negative weight %f for movie %d", w, m.ID)
		}
		weighted[i] = models.WeightedCandidate{
			Movie:  m,
			Weight: w,
			Genres: genreNames[m.ID],
		}
	}
	return weighted, nil
}

// resolve builds the caller-facing movie shape.
func (s *RecommendationService) resolve(m models.Movie, genres []string) models.RecommendedMovie {
	posterURL := ""
	if m.PosterPath != "" {
		posterURL = s.policy.ImageBaseURL + m.PosterPath
	}
	if genres == nil {
		genres = []string{}
	}
	return models.RecommendedMovie{
		ID:          m.ID,
		Title:       m.Title,
		Year:        m.Year(),
		Runtime:     m.Runtime,
		Overview:    m.Overview,
		PosterURL:   posterURL,
		VoteAverage: math.Round(m.VoteAverage*10) / 10,
		VoteCount:   m.VoteCount,
		Language:    m.OriginalLanguage,
		Genres:      genres,
	}
}

func unionIDs(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
