// Package ingestion turns raw article HTML into a stored news document:
// cleaned title, publish date, raw keyword lists per dimension, and ontology
// class scores for the semantic search layer.
package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/cybernews/backend/internal/embedding"
	"github.com/cybernews/backend/internal/keywords"
	"github.com/cybernews/backend/internal/metrics"
	"github.com/cybernews/backend/internal/ontology"
	"github.com/cybernews/backend/internal/storage/models"
	"github.com/cybernews/backend/pkg/logger"
)

// ArticleStore is the write half of the document store.
type ArticleStore interface {
	InsertArticle(ctx context.Context, article *models.NewsArticle) error
}

type Processor struct {
	store    ArticleStore
	graph    *ontology.Graph
	embedder embedding.Embedder
}

func NewProcessor(store ArticleStore, graph *ontology.Graph, embedder embedding.Embedder) *Processor {
	return &Processor{
		store:    store,
		graph:    graph,
		embedder: embedder,
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// ProcessArticle extracts, classifies, and stores one article.
func (p *Processor) ProcessArticle(ctx context.Context, url, htmlContent string) (*models.NewsArticle, error) {
	logger.Info("Processing article", zap.String("url", url))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	text := cleanText(doc)
	if text == "" {
		return nil, fmt.Errorf("no content extracted from HTML")
	}

	title := extractTitle(doc)
	article := &models.NewsArticle{
		ID:          uuid.New().String(),
		Title:       title,
		PublishDate: extractPublishDate(doc),
		URL:         url,
		Keywords:    extractKeywords(text),
		ClassScores: p.classScores(ctx, title),
	}

	if err := p.store.InsertArticle(ctx, article); err != nil {
		return nil, err
	}

	metrics.ArticlesIngested.Inc()
	logger.Info("Article ingested",
		zap.String("article_id", article.ID),
		zap.String("title", article.Title),
		zap.Int("class_scores", len(article.ClassScores)),
	)

	return article, nil
}

func cleanText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = "Untitled"
	}
	return title
}

func extractPublishDate(doc *goquery.Document) string {
	if meta, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok && meta != "" {
		return meta
	}
	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && dt != "" {
		return dt
	}
	return time.Now().UTC().Format("2006-01-02")
}

// extractKeywords builds the raw keyword lists: named entities for
// attackers, countries, and companies; taxonomy trigger phrases found in the
// text for attack techniques and sectors. Normalization happens later, at
// aggregation time.
func extractKeywords(text string) models.Keywords {
	kw := models.Keywords{
		AttackTechniques: scanTriggers(text, keywords.DimAttackTechnique),
		Sectors:          scanTriggers(text, keywords.DimSector),
	}

	proseDoc, err := prose.NewDocument(text)
	if err != nil {
		logger.Warn("NER failed, keyword lists limited to trigger scan", zap.Error(err))
		return kw
	}

	seen := make(map[string]bool)
	for _, ent := range proseDoc.Entities() {
		name := strings.TrimSpace(ent.Text)
		key := ent.Label + "|" + strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		switch ent.Label {
		case "PERSON":
			kw.Attackers = append(kw.Attackers, name)
		case "GPE":
			kw.Countries = append(kw.Countries, name)
		case "ORG":
			kw.Companies = append(kw.Companies, name)
		}
	}

	return kw
}

func scanTriggers(text string, dim keywords.Dimension) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, trigger := range keywords.Triggers(dim) {
		if containsTrigger(lower, trigger) {
			found = append(found, trigger)
		}
	}
	return found
}

// containsTrigger matches short triggers ("it", "dos", "cve") only on word
// boundaries; substrings like "hit" or "vendors" must not tag an article.
// Longer triggers keep plain containment so inflections still match.
func containsTrigger(lower, trigger string) bool {
	if len(trigger) > 3 {
		return strings.Contains(lower, trigger)
	}

	for i := 0; i+len(trigger) <= len(lower); {
		j := strings.Index(lower[i:], trigger)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(trigger)
		if (start == 0 || !isWordByte(lower[start-1])) &&
			(end == len(lower) || !isWordByte(lower[end])) {
			return true
		}
		i = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// classScores matches the article title against the ontology so the stored
// document carries the class-score map semantic search ranks on. Soft: an
// unembeddable title just leaves the map empty.
func (p *Processor) classScores(ctx context.Context, title string) map[string]float64 {
	matcher := ontology.NewMatcher(p.graph, embedding.NewMemo(p.embedder))

	match, err := matcher.MatchBestClass(ctx, title)
	if err != nil || match == nil {
		return nil
	}

	return map[string]float64{match.ClassURI: match.Score}
}
