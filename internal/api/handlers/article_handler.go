package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/cache/redis"
	"github.com/cybernews/backend/internal/ingestion"
	"github.com/cybernews/backend/pkg/logger"
)

type ArticleHandler struct {
	processor *ingestion.Processor
	cache     *redis.Client
}

func NewArticleHandler(processor *ingestion.Processor, cache *redis.Client) *ArticleHandler {
	return &ArticleHandler{
		processor: processor,
		cache:     cache,
	}
}

func (h *ArticleHandler) IngestArticle(c *fiber.Ctx) error {
	var req struct {
		URL         string `json:"url"`
		HTMLContent string `json:"html_content"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.URL == "" || req.HTMLContent == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url and html_content are required",
		})
	}

	article, err := h.processor.ProcessArticle(c.Context(), req.URL, req.HTMLContent)
	if err != nil {
		logger.Error("Failed to process article", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process article",
		})
	}

	// New articles change every cached statistics response.
	if h.cache != nil {
		if err := h.cache.InvalidateStats(c.Context()); err != nil {
			logger.Warn("Failed to invalidate stats cache", zap.Error(err))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(article)
}
