package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/storage/models"
	"github.com/cybernews/backend/internal/storage/sqlite"
	"github.com/cybernews/backend/pkg/logger"
)

type BookmarkHandler struct {
	store *sqlite.Client
}

func NewBookmarkHandler(store *sqlite.Client) *BookmarkHandler {
	return &BookmarkHandler{store: store}
}

func (h *BookmarkHandler) CreateBookmark(c *fiber.Ctx) error {
	var req struct {
		UserID    string `json:"user_id"`
		ArticleID string `json:"article_id"`
		Title     string `json:"title"`
		URL       string `json:"url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == "" || req.ArticleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and article_id are required",
		})
	}

	bookmark := &models.Bookmark{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		ArticleID: req.ArticleID,
		Title:     req.Title,
		URL:       req.URL,
		CreatedAt: time.Now(),
	}

	if err := h.store.InsertBookmark(bookmark); err != nil {
		logger.Error("Failed to save bookmark", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save bookmark",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(bookmark)
}

func (h *BookmarkHandler) ListBookmarks(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	bookmarks, err := h.store.ListBookmarks(userID)
	if err != nil {
		logger.Error("Failed to list bookmarks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list bookmarks",
		})
	}

	return c.JSON(fiber.Map{
		"bookmarks": bookmarks,
	})
}

func (h *BookmarkHandler) DeleteBookmark(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	bookmarkID := c.Params("id")
	if userID == "" || bookmarkID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and bookmark id are required",
		})
	}

	if err := h.store.DeleteBookmark(userID, bookmarkID); err != nil {
		logger.Error("Failed to delete bookmark", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete bookmark",
		})
	}

	return c.JSON(fiber.Map{
		"deleted": bookmarkID,
	})
}
