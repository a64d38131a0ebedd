package ontology

import (
	"context"

	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/embedding"
	"github.com/cybernews/backend/internal/vector"
	"github.com/cybernews/backend/pkg/logger"
)

// Match is the best class found for one query term.
type Match struct {
	ClassURI string  `json:"class_uri"`
	Score    float64 `json:"score"`
}

// Matcher resolves free-text terms to ontology classes with a greedy top-down
// walk: score the current level, descend into the winner's subclasses, and
// keep the deeper result only when it scores strictly higher.
type Matcher struct {
	graph    *Graph
	embedder embedding.Embedder
}

func NewMatcher(graph *Graph, embedder embedding.Embedder) *Matcher {
	return &Matcher{
		graph:    graph,
		embedder: embedder,
	}
}

// MatchBestClass returns the best class for term, or nil when the term could
// not be embedded or no candidate class yielded a usable vector. Embedding
// failures are soft by contract; the error return is reserved for context
// cancellation.
func (m *Matcher) MatchBestClass(ctx context.Context, term string) (*Match, error) {
	queryVec, err := m.embedder.Embed(ctx, term)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Query term could not be embedded",
			zap.String("term", term),
			zap.Error(err),
		)
		return nil, nil
	}

	// The visited set spans the whole traversal so a malformed cyclic
	// hierarchy cannot loop.
	visited := make(map[string]bool)
	match := m.walk(ctx, queryVec, m.graph.Roots(), visited)

	if match != nil {
		logger.Debug("Semantic class matched",
			zap.String("term", term),
			zap.String("class", match.ClassURI),
			zap.Float64("score", match.Score),
		)
	}
	return match, nil
}

func (m *Matcher) walk(ctx context.Context, queryVec []float32, candidates []string, visited map[string]bool) *Match {
	var best *Match

	for _, uri := range candidates {
		if visited[uri] {
			continue
		}
		visited[uri] = true

		labelVec, err := m.embedder.Embed(ctx, m.graph.Label(uri))
		if err != nil {
			// Soft: this candidate has no usable vector.
			continue
		}

		score := vector.Cosine(queryVec, labelVec)
		if best == nil || score > best.Score {
			best = &Match{ClassURI: uri, Score: score}
		}
	}

	if best == nil {
		return nil
	}

	if children := m.graph.Children(best.ClassURI); len(children) > 0 {
		deeper := m.walk(ctx, queryVec, children, visited)
		// Strictly greater: a tie keeps the shallower class.
		if deeper != nil && deeper.Score > best.Score {
			return deeper
		}
	}

	return best
}
