package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/emretalan/muse-db/internal/config"
	"github.com/emretalan/muse-db/internal/models"
)

// MovieRepository handles database operations for the movie catalog.
type MovieRepository struct {
	db     *sql.DB
	policy config.EngineConfig
}

// NewMovieRepository creates a new MovieRepository.
func NewMovieRepository(db *sql.DB, policy config.EngineConfig) *MovieRepository {
	return &MovieRepository{db: db, policy: policy}
}

// FetchCandidates returns movies matching the filter specification minus the
// excluded ids, with the engine's quality floors always applied. An empty
// result is a normal outcome, not an error.
func (r *MovieRepository) FetchCandidates(ctx context.Context, filters models.FilterSpec, excludeIDs []int) ([]models.Movie, error) {
	q := NewCandidateQuery(r.policy.MinRuntime, r.policy.MinVoteCount, r.policy.MinVoteAverage).
		Apply(filters).
		Exclude(excludeIDs)

	query, args := q.SQL(r.policy.CandidateCap)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0)
	for rows.Next() {
		var m models.Movie
		var runtime sql.NullInt64
		if err := rows.Scan(
			&m.ID, &m.TMDBId, &m.Title, &m.Overview, &m.ReleaseDate,
			&runtime, &m.VoteAverage, &m.VoteCount, &m.Popularity, &m.Adult,
			&m.PosterPath, &m.BackdropPath, &m.OriginalLanguage,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if runtime.Valid {
			rt := int(runtime.Int64)
			m.Runtime = &rt
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// GenresForMovies resolves genre names for a batch of movie ids in a single
// query, keyed by movie id.
func (r *MovieRepository) GenresForMovies(ctx context.Context, movieIDs []int) (map[int][]string, error) {
	result := make(map[int][]string)
	if len(movieIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT mg.movie_id, g.name
		FROM movie_genres mg
		INNER JOIN genres g ON g.id = mg.genre_id
		WHERE mg.movie_id = ANY($1)
		ORDER BY mg.movie_id, g.name
	`, pq.Array(movieIDs))
	if err != nil {
		return nil, fmt.Errorf("query movie genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movieID int
		var name string
		if err := rows.Scan(&movieID, &name); err != nil {
			return nil, fmt.Errorf("scan movie genre: %w", err)
		}
		result[movieID] = append(result[movieID], name)
	}
	return result, rows.Err()
}

// ListGenres returns the full genre lookup, sorted by name.
func (r *MovieRepository) ListGenres(ctx context.Context) ([]models.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tmdb_id, name FROM genres ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	genres := make([]models.Genre, 0)
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.TMDBId, &g.Name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// Ping verifies catalog store reachability for health checks.
func (r *MovieRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ---- Ingestion (TMDB sync) ----

// UpsertGenre inserts or updates a genre.
func (r *MovieRepository) UpsertGenre(ctx context.Context, tmdbID int, name string) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO genres (tmdb_id, name)
		VALUES ($1, $2)
		ON CONFLICT (tmdb_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, tmdbID, name).Scan(&id)
	return id, err
}

// UpsertMovie inserts or updates a movie.
func (r *MovieRepository) UpsertMovie(ctx context.Context, m *models.Movie) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO movies (tmdb_id, title, overview, release_date, runtime,
			vote_average, vote_count, popularity, adult,
			poster_path, backdrop_path, original_language, updated_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tmdb_id) DO UPDATE SET
			title = EXCLUDED.title,
			overview = EXCLUDED.overview,
			release_date = EXCLUDED.release_date,
			vote_average = EXCLUDED.vote_average,
			vote_count = EXCLUDED.vote_count,
			popularity = EXCLUDED.popularity,
			adult = EXCLUDED.adult,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path,
			original_language = EXCLUDED.original_language,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, m.TMDBId, m.Title, m.Overview, nullableDate(m.ReleaseDate), nullableInt(m.Runtime),
		m.VoteAverage, m.VoteCount, m.Popularity, m.Adult,
		m.PosterPath, m.BackdropPath, m.OriginalLanguage, time.Now()).Scan(&id)
	return id, err
}

// LinkMovieGenre creates the movie-genre association.
func (r *MovieRepository) LinkMovieGenre(ctx context.Context, movieID, genreID int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO movie_genres (movie_id, genre_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, movieID, genreID)
	return err
}

// ClearMovieGenres removes all genre links for a movie.
func (r *MovieRepository) ClearMovieGenres(ctx context.Context, movieID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = $1`, movieID)
	return err
}

// GetGenreIDByTMDBId returns the internal genre ID for a TMDB genre ID.
func (r *MovieRepository) GetGenreIDByTMDBId(ctx context.Context, tmdbID int) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `SELECT id FROM genres WHERE tmdb_id = $1`, tmdbID).Scan(&id)
	return id, err
}

// MoviesMissingRuntime returns (id, tmdb_id) pairs for movies without a
// runtime yet, for the detail backfill pass.
func (r *MovieRepository) MoviesMissingRuntime(ctx context.Context) ([]struct{ ID, TMDBId int }, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, tmdb_id FROM movies WHERE runtime IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []struct{ ID, TMDBId int }
	for rows.Next() {
		var item struct{ ID, TMDBId int }
		if err := rows.Scan(&item.ID, &item.TMDBId); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// UpdateRuntime sets the runtime for a movie.
func (r *MovieRepository) UpdateRuntime(ctx context.Context, id, runtime int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE movies SET runtime = $1, updated_at = NOW() WHERE id = $2`, runtime, id)
	return err
}

func nullableDate(dateStr string) interface{} {
	if dateStr == "" {
		return nil
	}
	return dateStr
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
