package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/search"
	"github.com/cybernews/backend/pkg/logger"
)

// WebSocketHandler runs semantic searches over a live connection, pushing
// per-term match events before the ranked result set so the UI can show
// progress while embeddings resolve.
type WebSocketHandler struct {
	engine *search.Engine
}

func NewWebSocketHandler(engine *search.Engine) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	// Cancelled when the read loop exits, so a disconnect abandons any
	// in-flight embedding calls.
	ctx, cancel := context.WithCancel(context.Background())

	defer func() {
		cancel()
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type       string   `json:"type"`
			QueryTerms []string `json:"query_terms"`
			UserID     string   `json:"user_id"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "search" {
			continue
		}

		if err := h.streamSearch(ctx, c, msg.QueryTerms, msg.UserID); err != nil {
			logger.Error("Failed to stream search", zap.Error(err))
			h.send(c, "error", "Failed to process search")
		}
	}
}

func (h *WebSocketHandler) streamSearch(ctx context.Context, c *websocket.Conn, terms []string, userID string) error {
	h.send(c, "status", "Matching query terms...")

	response, err := h.engine.Search(ctx, terms, userID)
	if err != nil {
		return err
	}

	for _, match := range response.Matches {
		if err := c.WriteJSON(map[string]interface{}{
			"type":  "match",
			"match": match,
		}); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type":    "results",
		"results": response.Results,
	})
}

func (h *WebSocketHandler) send(c *websocket.Conn, msgType, content string) {
	if err := c.WriteJSON(map[string]string{
		"type":    msgType,
		"content": content,
	}); err != nil {
		logger.Debug("WebSocket write failed", zap.Error(err))
	}
}
