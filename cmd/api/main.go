package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/aggregation"
	"github.com/cybernews/backend/internal/api/handlers"
	"github.com/cybernews/backend/internal/cache/redis"
	"github.com/cybernews/backend/internal/embedding"
	"github.com/cybernews/backend/internal/ingestion"
	"github.com/cybernews/backend/internal/metrics"
	"github.com/cybernews/backend/internal/middleware/ratelimit"
	"github.com/cybernews/backend/internal/middleware/security"
	"github.com/cybernews/backend/internal/middleware/validation"
	"github.com/cybernews/backend/internal/ontology"
	"github.com/cybernews/backend/internal/search"
	"github.com/cybernews/backend/internal/storage/mongo"
	"github.com/cybernews/backend/internal/storage/sqlite"
	"github.com/cybernews/backend/pkg/config"
	appLogger "github.com/cybernews/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting cybersecurity news API server")

	metrics.Init()

	// The ontology is process-wide immutable state; a bad file means the
	// semantic layer cannot serve at all, so parse failure is fatal.
	ttlBytes, err := os.ReadFile(cfg.Ontology.Path)
	if err != nil {
		appLogger.Fatal("Failed to read ontology file", zap.Error(err))
	}
	graph, err := ontology.Build(string(ttlBytes), ontology.Config{
		Namespace:      cfg.Ontology.Namespace,
		ExcludeClasses: cfg.Ontology.ExcludeClasses,
	})
	if err != nil {
		appLogger.Fatal("Failed to build ontology graph", zap.Error(err))
	}
	metrics.OntologyClassesTotal.Set(float64(graph.NumClasses()))

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	mongoClient, err := mongo.NewClient(
		context.Background(),
		cfg.Mongo.URI,
		cfg.Mongo.Database,
		cfg.Mongo.Collection,
		cfg.Mongo.TimeoutSec,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Mongo client", zap.Error(err))
	}
	defer mongoClient.Close(context.Background())

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without caches", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var embedder embedding.Embedder = embedding.NewClient(
		cfg.Embedding.APIKey,
		cfg.Embedding.Model,
		cfg.Embedding.TimeoutSec,
	)
	if redisClient != nil {
		embedder = embedding.NewRedisCache(
			embedder,
			redisClient,
			time.Duration(cfg.Embedding.CacheTTLMin)*time.Minute,
		)
	}

	aggEngine := aggregation.NewEngine()
	searchEngine := search.NewEngine(mongoClient, graph, embedder, sqliteClient)
	processor := ingestion.NewProcessor(mongoClient, graph, embedder)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	app.Use(limiter.Middleware())

	statsHandler := handlers.NewStatsHandler(mongoClient, aggEngine, redisClient)
	searchHandler := handlers.NewSearchHandler(searchEngine, sqliteClient)
	newsHandler := handlers.NewNewsHandler(mongoClient)
	ontologyHandler := handlers.NewOntologyHandler(graph)
	bookmarkHandler := handlers.NewBookmarkHandler(sqliteClient)
	articleHandler := handlers.NewArticleHandler(processor, redisClient)
	wsHandler := handlers.NewWebSocketHandler(searchEngine)

	api := app.Group("/api/v1")

	api.Get("/stats", statsHandler.HandleStats)
	api.Post("/search",
		validation.SearchMiddleware(validation.Config{Logger: appLogger.GetLogger()}),
		searchHandler.HandleSearch,
	)
	api.Get("/search/history", searchHandler.GetSearchHistory)
	api.Get("/news", newsHandler.ListNews)
	api.Get("/ontology/classes", ontologyHandler.TopClasses)

	api.Post("/bookmarks", bookmarkHandler.CreateBookmark)
	api.Get("/bookmarks", bookmarkHandler.ListBookmarks)
	api.Delete("/bookmarks/:id", bookmarkHandler.DeleteBookmark)

	api.Post("/articles", articleHandler.IngestArticle)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
