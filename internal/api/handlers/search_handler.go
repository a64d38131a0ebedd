package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/metrics"
	"github.com/cybernews/backend/internal/search"
	"github.com/cybernews/backend/internal/storage/sqlite"
	"github.com/cybernews/backend/pkg/logger"
)

type SearchHandler struct {
	engine  *search.Engine
	history *sqlite.Client
}

func NewSearchHandler(engine *search.Engine, history *sqlite.Client) *SearchHandler {
	return &SearchHandler{
		engine:  engine,
		history: history,
	}
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	started := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues("search").Observe(time.Since(started).Seconds())
	}()

	var req struct {
		QueryTerms []string `json:"query_terms"`
		UserID     string   `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	response, err := h.engine.Search(c.Context(), req.QueryTerms, req.UserID)
	if err != nil {
		logger.Error("Failed to process search", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process search",
		})
	}

	return c.JSON(response)
}

func (h *SearchHandler) GetSearchHistory(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	records, err := h.history.ListSearchHistory(userID, c.QueryInt("limit", 50))
	if err != nil {
		logger.Error("Failed to load search history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load search history",
		})
	}

	return c.JSON(fiber.Map{
		"history": records,
	})
}
