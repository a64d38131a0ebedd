// Package sqlite persists the per-user state that sits next to the news
// corpus: bookmarks and semantic-search history.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/storage/models"
	"github.com/cybernews/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		article_id TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT,
		created_at INTEGER NOT NULL,
		UNIQUE(user_id, article_id)
	);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_user ON bookmarks(user_id);

	CREATE TABLE IF NOT EXISTS search_history (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		terms TEXT NOT NULL,
		matched_classes INTEGER,
		result_count INTEGER,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_search_user ON search_history(user_id);
	CREATE INDEX IF NOT EXISTS idx_search_created ON search_history(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertBookmark(b *models.Bookmark) error {
	query := `
		INSERT INTO bookmarks (id, user_id, article_id, title, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, article_id) DO NOTHING
	`

	_, err := c.db.Exec(query, b.ID, b.UserID, b.ArticleID, b.Title, b.URL, b.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}

	logger.Debug("Bookmark saved",
		zap.String("user_id", b.UserID),
		zap.String("article_id", b.ArticleID),
	)
	return nil
}

func (c *Client) ListBookmarks(userID string) ([]models.Bookmark, error) {
	query := `
		SELECT id, user_id, article_id, title, url, created_at
		FROM bookmarks WHERE user_id = ? ORDER BY created_at DESC
	`

	rows, err := c.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.UserID, &b.ArticleID, &b.Title, &b.URL, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		b.CreatedAt = time.Unix(createdAt, 0)
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, rows.Err()
}

func (c *Client) DeleteBookmark(userID, bookmarkID string) error {
	_, err := c.db.Exec(`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, bookmarkID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

func (c *Client) InsertSearchRecord(r *models.SearchRecord) error {
	query := `
		INSERT INTO search_history (id, user_id, terms, matched_classes, result_count, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(query, r.ID, r.UserID, r.Terms, r.MatchedClasses, r.ResultCount, r.LatencyMS, r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert search record: %w", err)
	}

	return nil
}

func (c *Client) ListSearchHistory(userID string, limit int) ([]models.SearchRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, terms, matched_classes, result_count, latency_ms, created_at
		FROM search_history WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
	`

	rows, err := c.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	defer rows.Close()

	var records []models.SearchRecord
	for rows.Next() {
		var r models.SearchRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Terms, &r.MatchedClasses, &r.ResultCount, &r.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan search record: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}
