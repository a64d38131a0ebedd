package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/storage/mongo"
	"github.com/cybernews/backend/pkg/logger"
)

type NewsHandler struct {
	store *mongo.Client
}

func NewNewsHandler(store *mongo.Client) *NewsHandler {
	return &NewsHandler{store: store}
}

func (h *NewsHandler) ListNews(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit > 100 {
		limit = 100
	}

	articles, err := h.store.ListArticles(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to list articles", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch news",
		})
	}

	return c.JSON(articles)
}
