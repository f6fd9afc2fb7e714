package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/emretalan/muse-db/internal/config"
	"github.com/emretalan/muse-db/internal/database"
	"github.com/emretalan/muse-db/internal/handler"
	"github.com/emretalan/muse-db/internal/middleware"
	"github.com/emretalan/muse-db/internal/repository"
	"github.com/emretalan/muse-db/internal/service"
	"github.com/emretalan/muse-db/internal/tmdb"
)

func main() {
	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.DB)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis (non-fatal if unavailable)
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without rate limiting", "error", err)
	}

	// Initialize layers
	movieRepo := repository.NewMovieRepository(db, cfg.Engine)
	pickRepo := repository.NewPickRepository(db)
	svc := service.NewRecommendationService(movieRepo, pickRepo, rdb, cfg.Engine, nil)

	var syncSvc *service.SyncService
	if cfg.TMDB.APIKey != "" {
		tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL)
		syncSvc = service.NewSyncService(movieRepo, tmdbClient, svc.InvalidateGenres)
	} else {
		slog.Warn("TMDB_API_KEY not set, admin sync disabled")
	}

	h := handler.NewRecommendationHandler(svc, syncSvc)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "muse",
		ServerHeader: "muse",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Routes
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	if rdb != nil {
		api.Use(middleware.NewRateLimiter(rdb, 60, time.Minute).Handler())
	}
	api.Post("/recommendations", h.PickMovie)
	api.Post("/movies/browse", h.BrowseMovies)
	api.Get("/genres", h.ListGenres)
	api.Post("/admin/sync", h.SyncMovies)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down muse...")
		_ = app.Shutdown()
	}()

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting muse", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
