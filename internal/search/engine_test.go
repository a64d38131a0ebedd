package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cybernews/backend/internal/ontology"
	"github.com/cybernews/backend/internal/storage/models"
)

const ns = "http://example.org/sec#"

type fakeSource struct {
	articles []models.NewsArticle
	err      error
}

func (f *fakeSource) AllArticles(context.Context) ([]models.NewsArticle, error) {
	return f.articles, f.err
}

type fakeRecorder struct {
	records []*models.SearchRecord
}

func (f *fakeRecorder) InsertSearchRecord(r *models.SearchRecord) error {
	f.records = append(f.records, r)
	return nil
}

type fakeEmbedder struct {
	vectors map[string][]float32
	failAll bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failAll {
		return nil, errors.New("embedding backend down")
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return vec, nil
}

func testGraph(t *testing.T) *ontology.Graph {
	t.Helper()
	const ttl = `
@prefix ex: <http://example.org/sec#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

ex:Malware a ex:Class ;
    rdfs:label "Malware" .
ex:Phishing a ex:Class ;
    rdfs:label "Phishing" .
`
	g, err := ontology.Build(ttl, ontology.Config{Namespace: ns})
	require.NoError(t, err)
	return g
}

func testCorpus() []models.NewsArticle {
	return []models.NewsArticle{
		{
			ID:    "a1",
			Title: "Ransomware hits hospital",
			URL:   "https://news.example/a1",
			ClassScores: map[string]float64{
				ns + "Malware": 0.9,
			},
		},
		{
			ID:    "a2",
			Title: "Phishing wave against banks",
			URL:   "https://news.example/a2",
			ClassScores: map[string]float64{
				ns + "Phishing": 0.8,
			},
		},
		{
			ID:    "a3",
			Title: "Combined campaign",
			URL:   "https://news.example/a3",
			ClassScores: map[string]float64{
				ns + "Malware":  0.6,
				ns + "Phishing": 0.7,
			},
		},
		{
			ID:    "a4",
			Title: "Quarterly report",
			URL:   "https://news.example/a4",
		},
	}
}

func twoClassEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"ransomware": {1, 0},
		"phishing":   {0, 1},
		"Malware":    {1, 0},
		"Phishing":   {0, 1},
	}}
}

func TestSearchRanksByAverageScore(t *testing.T) {
	recorder := &fakeRecorder{}
	engine := NewEngine(&fakeSource{articles: testCorpus()}, testGraph(t), twoClassEmbedder(), recorder)

	resp, err := engine.Search(context.Background(), []string{"ransomware", "phishing"}, "u1")
	require.NoError(t, err)

	require.Len(t, resp.Matches, 2)
	require.True(t, resp.Matches[0].Matched)
	require.Equal(t, ns+"Malware", resp.Matches[0].ClassURI)
	require.True(t, resp.Matches[1].Matched)
	require.Equal(t, ns+"Phishing", resp.Matches[1].ClassURI)

	// a3 overlaps both classes: (0.6+0.7)/2 = 0.65 beats a1's 0.9/2 and a2's 0.8/2.
	require.Len(t, resp.Results, 3)
	require.Equal(t, "a3", resp.Results[0].ID)
	require.InDelta(t, 0.65, resp.Results[0].AvgScore, 1e-9)
	require.Equal(t, 2, resp.Results[0].OverlapCount)

	require.Equal(t, "a1", resp.Results[1].ID)
	require.InDelta(t, 0.45, resp.Results[1].AvgScore, 1e-9)
	require.Equal(t, "a2", resp.Results[2].ID)

	require.Len(t, recorder.records, 1)
	require.Equal(t, "u1", recorder.records[0].UserID)
	require.Equal(t, 2, recorder.records[0].MatchedClasses)
	require.Equal(t, 3, recorder.records[0].ResultCount)
}

func TestSearchEmptyTermsReturnsWholeCorpus(t *testing.T) {
	engine := NewEngine(&fakeSource{articles: testCorpus()}, testGraph(t), twoClassEmbedder(), nil)

	resp, err := engine.Search(context.Background(), []string{"", "   "}, "")
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	require.Empty(t, resp.Matches)
	for _, r := range resp.Results {
		require.Zero(t, r.AvgScore)
		require.Zero(t, r.OverlapCount)
	}
}

func TestSearchUnmatchableTermIsSoft(t *testing.T) {
	engine := NewEngine(&fakeSource{articles: testCorpus()}, testGraph(t), twoClassEmbedder(), nil)

	resp, err := engine.Search(context.Background(), []string{"ransomware", "gibberish"}, "")
	require.NoError(t, err)

	require.True(t, resp.Matches[0].Matched)
	require.False(t, resp.Matches[1].Matched)

	// The unmatched term still counts in the average's denominator.
	require.Equal(t, "a1", resp.Results[0].ID)
	require.InDelta(t, 0.45, resp.Results[0].AvgScore, 1e-9)
}

func TestSearchTotalEmbeddingOutage(t *testing.T) {
	engine := NewEngine(&fakeSource{articles: testCorpus()}, testGraph(t), &fakeEmbedder{failAll: true}, nil)

	resp, err := engine.Search(context.Background(), []string{"ransomware"}, "")
	require.NoError(t, err)
	require.Empty(t, resp.Results)
	require.False(t, resp.Matches[0].Matched)
}

func TestSearchStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	engine := NewEngine(&fakeSource{err: storeErr}, testGraph(t), twoClassEmbedder(), nil)

	_, err := engine.Search(context.Background(), []string{"ransomware"}, "")
	require.ErrorIs(t, err, storeErr)
}

type ctxCapturingEmbedder struct {
	sawCancelled bool
}

func (f *ctxCapturingEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	if ctx.Err() != nil {
		f.sawCancelled = true
		return nil, ctx.Err()
	}
	return []float32{1, 0}, nil
}

func TestSearchPropagatesContextToEmbedder(t *testing.T) {
	emb := &ctxCapturingEmbedder{}
	engine := NewEngine(&fakeSource{articles: testCorpus()}, testGraph(t), emb, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := engine.Search(ctx, []string{"ransomware"}, "")
	require.NoError(t, err)

	// The request context reaches in-flight embedding calls, so a caller
	// cancelling (a dropped websocket, a closed request) abandons them.
	require.True(t, emb.sawCancelled)
	require.False(t, resp.Matches[0].Matched)
	require.Empty(t, resp.Results)
}

func TestSearchDuplicateTermsShareClass(t *testing.T) {
	engine := NewEngine(&fakeSource{articles: testCorpus()}, testGraph(t), twoClassEmbedder(), nil)

	resp, err := engine.Search(context.Background(), []string{"ransomware", "ransomware"}, "")
	require.NoError(t, err)

	// Both terms resolve to the same class; the article's score counts once
	// but the denominator covers both terms.
	require.Equal(t, "a1", resp.Results[0].ID)
	require.InDelta(t, 0.45, resp.Results[0].AvgScore, 1e-9)
	require.Equal(t, 1, resp.Results[0].OverlapCount)
}
