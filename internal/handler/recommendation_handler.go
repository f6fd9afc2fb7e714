package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/emretalan/muse-db/internal/models"
	"github.com/emretalan/muse-db/internal/service"
)

// RecommendationHandler handles HTTP requests for the pick engine.
type RecommendationHandler struct {
	svc  *service.RecommendationService
	sync *service.SyncService
}

// NewRecommendationHandler creates a new RecommendationHandler. syncSvc may
// be nil when no TMDB API key is configured.
func NewRecommendationHandler(svc *service.RecommendationService, syncSvc *service.SyncService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc, sync: syncSvc}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health returns service health status.
// GET /health
func (h *RecommendationHandler) Health(c fiber.Ctx) error {
	status := h.svc.Health(c.Context())
	code := fiber.StatusOK
	if status.Status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(status)
}

// PickMovie recommends a single movie for a session.
// POST /api/v1/recommendations
func (h *RecommendationHandler) PickMovie(c fiber.Ctx) error {
	var req models.PickRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if msg := validateSessionID(req.SessionID); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
	}
	if msg := validateFilters(req.Filters); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
	}

	resp, err := h.svc.PickMovie(c.Context(), req.SessionID, req.Filters)
	if err != nil {
		slog.Error("failed to pick movie", "session_id", req.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to pick a movie",
		})
	}
	return c.JSON(resp)
}

// BrowseMovies returns a shuffled batch of matching movies.
// POST /api/v1/movies/browse
func (h *RecommendationHandler) BrowseMovies(c fiber.Ctx) error {
	var req models.BrowseRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.SessionID != "" {
		if msg := validateSessionID(req.SessionID); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
		}
	}
	if msg := validateFilters(req.Filters); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
	}
	if req.Limit < 0 || req.Limit > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "limit must be between 1 and 100",
		})
	}

	resp, err := h.svc.BrowseMovies(c.Context(), req)
	if err != nil {
		slog.Error("failed to browse movies", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to browse movies",
		})
	}
	return c.JSON(resp)
}

// ListGenres returns the full genre lookup sorted by name.
// GET /api/v1/genres
func (h *RecommendationHandler) ListGenres(c fiber.Ctx) error {
	genres, err := h.svc.ListGenres(c.Context())
	if err != nil {
		slog.Error("failed to list genres", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to retrieve genres",
		})
	}
	return c.JSON(fiber.Map{"genres": genres})
}

// SyncMovies triggers a catalog sync from TMDB.
// POST /api/v1/admin/sync
func (h *RecommendationHandler) SyncMovies(c fiber.Ctx) error {
	if h.sync == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "sync is not configured",
		})
	}

	pages := fiber.Query(c, "pages", 5)
	if pages < 1 {
		pages = 1
	}
	if pages > 50 {
		pages = 50
	}

	count, err := h.sync.SyncMovies(c.Context(), pages)
	if err != nil {
		slog.Error("sync failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "sync failed: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":       "sync completed",
		"movies_synced": count,
		"pages":         pages,
	})
}
