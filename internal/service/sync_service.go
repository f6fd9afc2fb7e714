package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emretalan/muse-db/internal/models"
	"github.com/emretalan/muse-db/internal/repository"
	"github.com/emretalan/muse-db/internal/tmdb"
)

// SyncService loads the catalog from TMDB. One-time/administrative data
// loading, outside the recommendation decision path.
type SyncService struct {
	repo       *repository.MovieRepository
	tmdbClient *tmdb.Client
	onSynced   func()
}

// NewSyncService creates a new SyncService. onSynced runs after a completed
// sync (used to invalidate the genre cache); it may be nil.
func NewSyncService(repo *repository.MovieRepository, tmdbClient *tmdb.Client, onSynced func()) *SyncService {
	return &SyncService{
		repo:       repo,
		tmdbClient: tmdbClient,
		onSynced:   onSynced,
	}
}

// SyncMovies fetches genres and the given number of discover pages from TMDB
// and upserts them into the catalog. Returns the number of movies synced.
func (s *SyncService) SyncMovies(ctx context.Context, pages int) (int, error) {
	slog.Info("starting TMDB sync", "pages", pages)

	// Genres first, movie-genre links need them.
	genres, err := s.tmdbClient.GetGenres(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch TMDB genres: %w", err)
	}
	for _, g := range genres {
		if _, err := s.repo.UpsertGenre(ctx, g.ID, g.Name); err != nil {
			slog.Error("failed to upsert genre", "genre", g.Name, "error", err)
		}
	}
	slog.Info("synced genres", "count", len(genres))

	totalSynced := 0
	for page := 1; page <= pages; page++ {
		result, err := s.tmdbClient.DiscoverMovies(ctx, page)
		if err != nil {
			slog.Error("failed to fetch TMDB page", "page", page, "error", err)
			continue
		}

		for _, tm := range result.Results {
			movie := &models.Movie{
				TMDBId:           tm.ID,
				Title:            tm.Title,
				Overview:         tm.Overview,
				ReleaseDate:      tm.ReleaseDate,
				VoteAverage:      tm.VoteAverage,
				VoteCount:        tm.VoteCount,
				Popularity:       tm.Popularity,
				Adult:            tm.Adult,
				PosterPath:       tm.PosterPath,
				BackdropPath:     tm.BackdropPath,
				OriginalLanguage: tm.OriginalLanguage,
			}

			movieID, err := s.repo.UpsertMovie(ctx, movie)
			if err != nil {
				slog.Error("failed to upsert movie", "title", movie.Title, "error", err)
				continue
			}

			// Clear existing genre links and re-create
			_ = s.repo.ClearMovieGenres(ctx, movieID)
			for _, genreID := range tm.GenreIDs {
				internalGenreID, err := s.repo.GetGenreIDByTMDBId(ctx, genreID)
				if err != nil {
					continue
				}
				_ = s.repo.LinkMovieGenre(ctx, movieID, internalGenreID)
			}

			totalSynced++
		}

		slog.Info("synced page", "page", page, "movies", len(result.Results))
	}

	// Discover results carry no runtime; backfill it from the detail
	// endpoint off the request path.
	go s.syncRuntimes(context.WithoutCancel(ctx))

	if s.onSynced != nil {
		s.onSynced()
	}

	slog.Info("TMDB sync completed", "total_synced", totalSynced)
	return totalSynced, nil
}

// syncRuntimes fetches the runtime for movies that don't have one yet.
func (s *SyncService) syncRuntimes(ctx context.Context) {
	movies, err := s.repo.MoviesMissingRuntime(ctx)
	if err != nil {
		slog.Error("failed to get movies for runtime sync", "error", err)
		return
	}

	for _, m := range movies {
		detail, err := s.tmdbClient.GetMovieDetail(ctx, m.TMDBId)
		if err != nil {
			slog.Error("failed to fetch movie detail", "tmdb_id", m.TMDBId, "error", err)
			continue
		}
		if err := s.repo.UpdateRuntime(ctx, m.ID, detail.Runtime); err != nil {
			slog.Error("failed to update runtime", "id", m.ID, "error", err)
		}
		// Rate limit TMDB requests
		time.Sleep(100 * time.Millisecond)
	}
	slog.Info("runtime sync completed", "count", len(movies))
}
