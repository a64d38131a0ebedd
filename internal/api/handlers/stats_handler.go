package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/aggregation"
	"github.com/cybernews/backend/internal/cache/redis"
	"github.com/cybernews/backend/internal/metrics"
	"github.com/cybernews/backend/internal/storage/mongo"
	"github.com/cybernews/backend/pkg/logger"
	"github.com/cybernews/backend/pkg/utils"
)

const statsCacheTTL = 5 * time.Minute

type StatsHandler struct {
	store  *mongo.Client
	engine *aggregation.Engine
	cache  *redis.Client
}

func NewStatsHandler(store *mongo.Client, engine *aggregation.Engine, cache *redis.Client) *StatsHandler {
	return &StatsHandler{
		store:  store,
		engine: engine,
		cache:  cache,
	}
}

// HandleStats serves the aggregated statistics. Optional start and end query
// params (MM-YYYY, both or neither) select the window; the default is the
// trailing 12 months.
func (h *StatsHandler) HandleStats(c *fiber.Ctx) error {
	started := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues("stats").Observe(time.Since(started).Seconds())
	}()

	start := c.Query("start")
	end := c.Query("end")
	if (start == "") != (end == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "start and end must be supplied together",
		})
	}

	var window *aggregation.Window
	if start != "" {
		w, err := aggregation.ParseWindow(start, end)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		window = &w
	}

	cacheKey := utils.HashString(fmt.Sprintf("%s|%s", start, end))
	if h.cache != nil {
		var cached aggregation.Result
		if ok, err := h.cache.GetStats(c.Context(), cacheKey, &cached); err == nil && ok {
			metrics.CacheHits.WithLabelValues("stats").Inc()
			return c.JSON(cached)
		}
		metrics.CacheMisses.WithLabelValues("stats").Inc()
	}

	articles, err := h.store.AllArticles(c.Context())
	if err != nil {
		logger.Error("Failed to load article corpus", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load articles",
		})
	}

	result := h.engine.Aggregate(articles, window)
	metrics.ArticlesAggregated.Observe(float64(len(articles)))

	if h.cache != nil {
		if err := h.cache.SetStats(c.Context(), cacheKey, result, statsCacheTTL); err != nil {
			logger.Warn("Failed to cache stats", zap.Error(err))
		}
	}

	return c.JSON(result)
}
