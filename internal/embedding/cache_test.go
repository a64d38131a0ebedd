package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{
		calls: make(map[string]int),
		fail:  make(map[string]bool),
	}
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.calls[text]++
	fail := c.fail[text]
	c.mu.Unlock()

	if fail {
		return nil, errors.New("provider error")
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestMemoDeduplicates(t *testing.T) {
	inner := newCountingEmbedder()
	memo := NewMemo(inner)

	first, err := memo.Embed(context.Background(), "malware")
	require.NoError(t, err)

	second, err := memo.Embed(context.Background(), "malware")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls["malware"])

	_, err = memo.Embed(context.Background(), "phishing")
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls["phishing"])
}

func TestMemoDoesNotMemoizeFailures(t *testing.T) {
	inner := newCountingEmbedder()
	inner.fail["flaky"] = true
	memo := NewMemo(inner)

	_, err := memo.Embed(context.Background(), "flaky")
	require.Error(t, err)

	inner.mu.Lock()
	inner.fail["flaky"] = false
	inner.mu.Unlock()

	vec, err := memo.Embed(context.Background(), "flaky")
	require.NoError(t, err)
	require.NotNil(t, vec)
	require.Equal(t, 2, inner.calls["flaky"])
}

func TestMemoConcurrentAccess(t *testing.T) {
	inner := newCountingEmbedder()
	memo := NewMemo(inner)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := memo.Embed(context.Background(), "shared")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// The memo tolerates duplicate provider calls under contention but
	// never more than the number of goroutines.
	inner.mu.Lock()
	defer inner.mu.Unlock()
	require.GreaterOrEqual(t, inner.calls["shared"], 1)
	require.LessOrEqual(t, inner.calls["shared"], 20)
}
