// Package mongo is the article document store. The aggregation and search
// cores only ever bulk-read from it; ingestion is the single writer.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/storage/models"
	"github.com/cybernews/backend/pkg/logger"
)

type Client struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewClient(ctx context.Context, uri, database, collection string, timeoutSec int) (*Client, error) {
	if timeoutSec <= 0 {
		timeoutSec = 10
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("Mongo client initialized",
		zap.String("database", database),
		zap.String("collection", collection),
	)

	return &Client{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// AllArticles is the bulk read behind aggregation and semantic search.
func (c *Client) AllArticles(ctx context.Context) ([]models.NewsArticle, error) {
	cursor, err := c.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer cursor.Close(ctx)

	var articles []models.NewsArticle
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}

	return articles, nil
}

// ListArticles returns up to limit articles for the news list view.
func (c *Client) ListArticles(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 {
		limit = 20
	}

	cursor, err := c.collection.Find(ctx, bson.M{}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer cursor.Close(ctx)

	var articles []models.NewsArticle
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}

	return articles, nil
}

func (c *Client) CountArticles(ctx context.Context) (int64, error) {
	count, err := c.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (c *Client) InsertArticle(ctx context.Context, article *models.NewsArticle) error {
	if _, err := c.collection.InsertOne(ctx, article); err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	logger.Debug("Article inserted",
		zap.String("article_id", article.ID),
		zap.String("url", article.URL),
	)
	return nil
}
