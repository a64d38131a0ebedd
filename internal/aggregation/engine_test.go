package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cybernews/backend/internal/storage/models"
)

func fixedClock(t *testing.T, value string) func() time.Time {
	t.Helper()
	now, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return func() time.Time { return now }
}

func article(id, title, date string, kw models.Keywords) models.NewsArticle {
	return models.NewsArticle{
		ID:          id,
		Title:       title,
		PublishDate: date,
		URL:         "https://news.example/" + id,
		Keywords:    kw,
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
	}{
		{"Mon, 15 Jan 2024 10:30:00 +0000", true},
		{"Mon, 15 Jan 2024 10:30:00 GMT", true},
		{"2024-01-15", true},
		{"Jan 15, 2024", true},
		{"15 Jan 2024", true},
		{"2024-01-15T10:30:00Z", true},
		{"yesterday", false},
		{"", false},
	}
	for _, tt := range tests {
		_, ok := ParseDate(tt.raw)
		require.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("01-2024", "03-2024")
	require.NoError(t, err)
	require.Len(t, w.Months(), 3)

	_, err = ParseWindow("03-2024", "01-2024")
	require.Error(t, err)

	_, err = ParseWindow("2024-01", "2024-03")
	require.Error(t, err)
}

func TestAggregateMonthlySeriesZeroFilled(t *testing.T) {
	articles := []models.NewsArticle{
		article("a1", "Breach one", "2024-01-15", models.Keywords{}),
		article("a2", "Breach two", "2024-01-20", models.Keywords{}),
		article("a3", "Breach three", "2024-02-01", models.Keywords{}),
	}

	engine := NewEngineAt(fixedClock(t, "2024-06-01"))
	window, err := ParseWindow("01-2024", "03-2024")
	require.NoError(t, err)

	result := engine.Aggregate(articles, &window)

	require.Equal(t, []MonthCount{
		{Label: "01-2024", Value: 2},
		{Label: "02-2024", Value: 1},
		{Label: "03-2024", Value: 0},
	}, result.MonthlyCounts)
}

func TestAggregateBucketsAndHeads(t *testing.T) {
	articles := []models.NewsArticle{
		article("a1", "Hospital ransomware", "2024-01-15", models.Keywords{
			AttackTechniques: []string{"Ransomware Attack", "trojan dropper"},
			Sectors:          []string{"hospital network"},
			Countries:        []string{"U.S."},
		}),
		article("a2", "Bank phishing", "2024-01-20", models.Keywords{
			AttackTechniques: []string{"phishing campaign"},
			Sectors:          []string{"regional bank"},
			Countries:        []string{"usa"},
		}),
		article("a3", "Clinic malware", "2024-02-01", models.Keywords{
			AttackTechniques: []string{"malware infection"},
			Sectors:          []string{"clinic chain"},
			Countries:        []string{"Germany"},
		}),
	}

	engine := NewEngineAt(fixedClock(t, "2024-06-01"))
	window, err := ParseWindow("01-2024", "02-2024")
	require.NoError(t, err)

	result := engine.Aggregate(articles, &window)

	// a1 carries two raw variants of Malware but contributes once.
	require.Equal(t, "Malware", result.AttackTechniques[0].Label)
	require.Equal(t, 2, result.AttackTechniques[0].Count)
	require.Len(t, result.AttackTechniques[0].Articles, 2)

	require.Equal(t, Head{Label: "Malware", Count: 2}, result.MostUsedAttackType)
	require.Equal(t, Head{Label: "Healthcare", Count: 2}, result.MostTargetedSector)

	// Alias variants collapse onto one country bucket.
	require.Equal(t, "United States", result.Countries[0].Label)
	require.Equal(t, 2, result.Countries[0].Count)

	// newsCount reflects the whole corpus, not the window.
	require.Equal(t, 3, result.NewsCount)
}

func TestAggregateSortDeterministic(t *testing.T) {
	articles := []models.NewsArticle{
		article("a1", "One", "2024-01-10", models.Keywords{
			AttackTechniques: []string{"phishing"},
		}),
		article("a2", "Two", "2024-01-11", models.Keywords{
			AttackTechniques: []string{"ransomware"},
		}),
	}

	engine := NewEngineAt(fixedClock(t, "2024-06-01"))
	window, err := ParseWindow("01-2024", "01-2024")
	require.NoError(t, err)

	first := engine.Aggregate(articles, &window)
	for i := 0; i < 10; i++ {
		require.Equal(t, first.AttackTechniques, engine.Aggregate(articles, &window).AttackTechniques)
	}

	// Equal counts fall back to label order.
	require.Equal(t, "Malware", first.AttackTechniques[0].Label)
	require.Equal(t, "Phishing", first.AttackTechniques[1].Label)
}

func TestAggregateExcludesFutureAndUnparseable(t *testing.T) {
	articles := []models.NewsArticle{
		article("a1", "Current", "2024-01-15", models.Keywords{
			AttackTechniques: []string{"phishing"},
		}),
		article("a2", "Future", "2024-09-15", models.Keywords{
			AttackTechniques: []string{"phishing"},
		}),
		article("a3", "Garbled", "soonish", models.Keywords{
			AttackTechniques: []string{"phishing"},
		}),
	}

	engine := NewEngineAt(fixedClock(t, "2024-06-01"))
	window, err := ParseWindow("01-2024", "12-2024")
	require.NoError(t, err)

	result := engine.Aggregate(articles, &window)

	// Excluded articles are excluded everywhere at once.
	require.Equal(t, 1, result.AttackTechniques[0].Count)
	total := 0
	for _, m := range result.MonthlyCounts {
		total += m.Value
	}
	require.Equal(t, 1, total)
	// But the corpus size still counts them.
	require.Equal(t, 3, result.NewsCount)
}

func TestAggregateDefaultWindow(t *testing.T) {
	articles := []models.NewsArticle{
		article("a1", "Old", "2023-03-10", models.Keywords{}),
		article("a2", "Latest", "2024-02-20", models.Keywords{}),
	}

	engine := NewEngineAt(fixedClock(t, "2024-06-01"))
	result := engine.Aggregate(articles, nil)

	// Trailing 12 months ending at the latest publish month.
	require.Len(t, result.MonthlyCounts, 12)
	require.Equal(t, "03-2023", result.MonthlyCounts[0].Label)
	require.Equal(t, "02-2024", result.MonthlyCounts[11].Label)
	require.Equal(t, 1, result.MonthlyCounts[0].Value)
	require.Equal(t, 1, result.MonthlyCounts[11].Value)
}

func TestAggregateEmptyCorpus(t *testing.T) {
	engine := NewEngineAt(fixedClock(t, "2024-06-01"))
	result := engine.Aggregate(nil, nil)

	require.Equal(t, 0, result.NewsCount)
	require.Len(t, result.MonthlyCounts, 12)
	require.Equal(t, "06-2024", result.MonthlyCounts[11].Label)
	require.Equal(t, Head{Label: "N/A", Count: 0}, result.MostUsedAttackType)
	require.Empty(t, result.AttackTechniques)
}
