package embedding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/cache/redis"
	"github.com/cybernews/backend/internal/metrics"
	"github.com/cybernews/backend/pkg/logger"
	"github.com/cybernews/backend/pkg/utils"
)

// Memo is a request-scoped Embedder wrapper. The hierarchy walk embeds the
// same class labels across terms, so one search request shares one Memo.
// Failures are not memoized; a later call may still succeed.
type Memo struct {
	inner Embedder

	mu   sync.Mutex
	vecs map[string][]float32
}

func NewMemo(inner Embedder) *Memo {
	return &Memo{
		inner: inner,
		vecs:  make(map[string][]float32),
	}
}

func (m *Memo) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	vec, ok := m.vecs[text]
	m.mu.Unlock()
	if ok {
		return vec, nil
	}

	vec, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.vecs[text] = vec
	m.mu.Unlock()
	return vec, nil
}

// RedisCache is a process-wide Embedder wrapper backed by the Redis embedding
// cache. Cache errors fall through to the provider.
type RedisCache struct {
	inner Embedder
	cache *redis.Client
	ttl   time.Duration
}

func NewRedisCache(inner Embedder, cache *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func (c *RedisCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := utils.HashString(text)

	vec, ok, err := c.cache.GetEmbedding(ctx, key)
	if err != nil {
		logger.Warn("Embedding cache read failed", zap.Error(err))
	}
	if ok {
		metrics.CacheHits.WithLabelValues("embedding").Inc()
		return vec, nil
	}
	metrics.CacheMisses.WithLabelValues("embedding").Inc()

	vec, err = c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetEmbedding(ctx, key, vec, c.ttl); err != nil {
		logger.Warn("Embedding cache write failed", zap.Error(err))
	}

	return vec, nil
}
