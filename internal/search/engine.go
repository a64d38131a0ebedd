// Package search ranks stored articles against free-text query terms by way
// of the ontology: each term is resolved to its best class, and articles are
// scored by how their recorded class-score maps overlap the matched classes.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/embedding"
	"github.com/cybernews/backend/internal/metrics"
	"github.com/cybernews/backend/internal/ontology"
	"github.com/cybernews/backend/internal/storage/models"
	"github.com/cybernews/backend/pkg/logger"
)

// ArticleSource is the bulk read the engine needs from the document store.
type ArticleSource interface {
	AllArticles(ctx context.Context) ([]models.NewsArticle, error)
}

// Recorder persists search history. Best effort; failures only log.
type Recorder interface {
	InsertSearchRecord(r *models.SearchRecord) error
}

type Engine struct {
	source   ArticleSource
	graph    *ontology.Graph
	embedder embedding.Embedder
	recorder Recorder
}

// Result is one matched article with its ranking metadata.
type Result struct {
	models.NewsArticle
	AvgScore     float64 `json:"avgScore"`
	OverlapCount int     `json:"overlapCount"`
}

// TermMatch reports how one query term resolved, for response transparency
// and for the live search stream.
type TermMatch struct {
	Term     string  `json:"term"`
	ClassURI string  `json:"class_uri,omitempty"`
	Label    string  `json:"label,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Matched  bool    `json:"matched"`
}

type Response struct {
	Results []Result    `json:"results"`
	Matches []TermMatch `json:"matches"`
}

func NewEngine(source ArticleSource, graph *ontology.Graph, embedder embedding.Embedder, recorder Recorder) *Engine {
	return &Engine{
		source:   source,
		graph:    graph,
		embedder: embedder,
		recorder: recorder,
	}
}

// Search resolves every term to its best ontology class and ranks the corpus
// by average match score. An empty term list returns the whole corpus
// unranked. Individual term failures are soft: the term simply contributes no
// match, and a total embedding outage degrades to zero matches rather than an
// error.
func (e *Engine) Search(ctx context.Context, rawTerms []string, userID string) (*Response, error) {
	start := time.Now()

	terms := make([]string, 0, len(rawTerms))
	for _, t := range rawTerms {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}

	articles, err := e.source.AllArticles(ctx)
	if err != nil {
		metrics.SearchTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(terms) == 0 {
		results := make([]Result, 0, len(articles))
		for _, a := range articles {
			results = append(results, Result{NewsArticle: a})
		}
		metrics.SearchTotal.WithLabelValues("ok").Inc()
		return &Response{Results: results, Matches: []TermMatch{}}, nil
	}

	matches := e.matchTerms(ctx, terms)

	matchedScores := make(map[string]float64)
	matchedCount := 0
	for _, m := range matches {
		if !m.Matched {
			continue
		}
		matchedCount++
		if best, ok := matchedScores[m.ClassURI]; !ok || m.Score > best {
			matchedScores[m.ClassURI] = m.Score
		}
		metrics.MatchScore.Observe(m.Score)
	}
	metrics.SearchTermsMatched.Observe(float64(matchedCount))

	results := rank(articles, matchedScores, len(terms))

	e.record(userID, terms, matchedCount, len(results), time.Since(start))

	logger.Info("Semantic search completed",
		zap.Int("terms", len(terms)),
		zap.Int("matched_terms", matchedCount),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)

	metrics.SearchTotal.WithLabelValues("ok").Inc()
	return &Response{Results: results, Matches: matches}, nil
}

// matchTerms resolves all terms concurrently. One memo is shared so class
// labels are embedded at most once per request; each term's hierarchy walk
// stays sequential internally as required by the level-by-level descent.
func (e *Engine) matchTerms(ctx context.Context, terms []string) []TermMatch {
	memo := embedding.NewMemo(e.embedder)
	matcher := ontology.NewMatcher(e.graph, memo)

	matches := make([]TermMatch, len(terms))
	var wg sync.WaitGroup

	for i, term := range terms {
		wg.Add(1)
		go func(i int, term string) {
			defer wg.Done()

			matches[i] = TermMatch{Term: term}
			match, err := matcher.MatchBestClass(ctx, term)
			if err != nil || match == nil {
				return
			}

			matches[i].ClassURI = match.ClassURI
			matches[i].Label = ontology.DisplayLabel(e.graph.Label(match.ClassURI))
			matches[i].Score = match.Score
			matches[i].Matched = true
		}(i, term)
	}
	wg.Wait()

	return matches
}

// rank scores each article by the sum of its recorded scores for the matched
// classes, averaged over the number of query terms.
func rank(articles []models.NewsArticle, matchedScores map[string]float64, termCount int) []Result {
	results := make([]Result, 0)

	for _, a := range articles {
		overlap := 0
		total := 0.0
		for uri, score := range a.ClassScores {
			if _, ok := matchedScores[uri]; ok {
				overlap++
				total += score
			}
		}
		if overlap == 0 {
			continue
		}

		results = append(results, Result{
			NewsArticle:  a,
			AvgScore:     total / float64(termCount),
			OverlapCount: overlap,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].AvgScore != results[j].AvgScore {
			return results[i].AvgScore > results[j].AvgScore
		}
		if results[i].OverlapCount != results[j].OverlapCount {
			return results[i].OverlapCount > results[j].OverlapCount
		}
		return results[i].Title < results[j].Title
	})

	return results
}

func (e *Engine) record(userID string, terms []string, matchedClasses, resultCount int, elapsed time.Duration) {
	if e.recorder == nil {
		return
	}

	err := e.recorder.InsertSearchRecord(&models.SearchRecord{
		ID:             uuid.New().String(),
		UserID:         userID,
		Terms:          strings.Join(terms, ", "),
		MatchedClasses: matchedClasses,
		ResultCount:    resultCount,
		LatencyMS:      int(elapsed.Milliseconds()),
		CreatedAt:      time.Now(),
	})
	if err != nil {
		logger.Warn("Failed to record search history", zap.Error(err))
	}
}
