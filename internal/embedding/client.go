package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/metrics"
	"github.com/cybernews/backend/pkg/circuitbreaker"
	"github.com/cybernews/backend/pkg/logger"
	"github.com/cybernews/backend/pkg/retry"
)

var (
	// ErrUnavailable means the provider could not be reached or refused the call.
	ErrUnavailable = errors.New("embedding provider unavailable")
	// ErrMalformed means the provider answered but not with a usable vector.
	ErrMalformed = errors.New("embedding response malformed")
)

// Embedder is the text-in, vector-out contract the matcher and the caches
// are written against.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client calls a remote embedding provider. Every call carries a timeout and
// runs behind a retry loop and a circuit breaker. Callers must treat failures
// as soft: the text simply has no usable vector.
type Client struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(apiKey, model string, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 15
	}

	cb := circuitbreaker.New("embedding", circuitbreaker.Config{
		MaxRequests:      5,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	// A malformed response is not transient, so only availability
	// errors are retried.
	retryConfig := retry.Config{
		MaxAttempts:     3,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		Multiplier:      2.0,
		JitterFraction:  0.1,
		RetryableErrors: []error{ErrUnavailable},
		Logger:          logger.GetLogger(),
	}

	logger.Info("Embedding client initialized", zap.String("model", model))

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var vec []float32

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: []string{text},
				Model: openai.EmbeddingModel(c.model),
			})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}

			if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
				return fmt.Errorf("%w: empty vector for %d-byte input", ErrMalformed, len(text))
			}

			vec = make([]float32, len(resp.Data[0].Embedding))
			copy(vec, resp.Data[0].Embedding)
			return nil
		})
	})

	if err != nil {
		metrics.EmbeddingRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.EmbeddingRequests.WithLabelValues("ok").Inc()
	return vec, nil
}
