// Package aggregation turns the raw article corpus into the statistics the
// dashboard renders: canonical keyword buckets per dimension and a
// zero-filled monthly series.
package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/cybernews/backend/internal/keywords"
	"github.com/cybernews/backend/internal/storage/models"
)

// MonthLabelFormat is the wire format of month labels and window parameters.
const MonthLabelFormat = "01-2006"

// dateFormats are tried in order; the first one that parses wins.
var dateFormats = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// ArticleRef identifies one article inside a bucket.
type ArticleRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
	URL   string `json:"url"`
}

// Bucket is one canonical label with its supporting articles. The _id key is
// the legacy field name the front end binds to.
type Bucket struct {
	Label    string       `json:"_id"`
	Count    int          `json:"count"`
	Articles []ArticleRef `json:"articles"`
}

// Head is a single derived head-of-list view.
type Head struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthCount is one point of the monthly series.
type MonthCount struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Result is the statistics response. Field names are the legacy JSON contract.
type Result struct {
	Companies            []Bucket     `json:"companies"`
	Countries            []Bucket     `json:"countries"`
	AttackTechniques     []Bucket     `json:"attack_techniques"`
	Attackers            []Bucket     `json:"attackers"`
	Sectors              []Bucket     `json:"sectors"`
	Top5AttackTechniques []Bucket     `json:"top5AttackTechniques"`
	Top5Attackers        []Bucket     `json:"top5Attackers"`
	MostUsedAttackType   Head         `json:"mostUsedAttackType"`
	MostTargetedSector   Head         `json:"mostTargetedSector"`
	NewsCount            int          `json:"newsCount"`
	MonthlyCounts        []MonthCount `json:"monthlyCounts"`
}

// Window is an inclusive month range. Both bounds are normalized to the first
// instant of their month in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow builds a window from MM-YYYY bounds.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(MonthLabelFormat, start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start month %q: %w", start, err)
	}
	e, err := time.Parse(MonthLabelFormat, end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end month %q: %w", end, err)
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("end month %s precedes start month %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) contains(t time.Time) bool {
	m := monthOf(t)
	return !m.Before(w.Start) && !m.After(w.End)
}

// Months lists every month of the window in chronological order.
func (w Window) Months() []time.Time {
	var months []time.Time
	for m := w.Start; !m.After(w.End); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an article publish date against the accepted formats.
func ParseDate(raw string) (time.Time, bool) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Engine computes statistics over a supplied article set. It is stateless;
// the clock is injectable for tests.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt pins the clock, for tests and replays.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

type retained struct {
	article models.NewsArticle
	date    time.Time
}

// Aggregate filters articles to the window and builds every bucket and the
// monthly series from exactly that filtered set. A nil window means the
// trailing 12 months ending at the latest parseable publish date (or at now
// when nothing parses). Articles with unparseable or future dates are
// excluded uniformly from buckets and monthly counts.
func (e *Engine) Aggregate(articles []models.NewsArticle, window *Window) Result {
	now := e.now()

	w := e.resolveWindow(articles, window, now)

	var kept []retained
	for _, a := range articles {
		d, ok := ParseDate(a.PublishDate)
		if !ok || d.After(now) || !w.contains(d) {
			continue
		}
		kept = append(kept, retained{article: a, date: d})
	}

	result := Result{
		Companies:        bucketize(kept, keywords.DimCompany, rawCompanies),
		Countries:        bucketize(kept, keywords.DimCountry, rawCountries),
		AttackTechniques: bucketize(kept, keywords.DimAttackTechnique, rawAttackTechniques),
		Attackers:        bucketize(kept, keywords.DimAttacker, rawAttackers),
		Sectors:          bucketize(kept, keywords.DimSector, rawSectors),
		NewsCount:        len(articles),
		MonthlyCounts:    monthlySeries(kept, w),
	}

	result.Top5AttackTechniques = head(result.AttackTechniques, 5)
	result.Top5Attackers = head(result.Attackers, 5)
	result.MostUsedAttackType = headOf(result.AttackTechniques)
	result.MostTargetedSector = headOf(result.Sectors)

	return result
}

func (e *Engine) resolveWindow(articles []models.NewsArticle, window *Window, now time.Time) Window {
	if window != nil {
		return *window
	}

	end := monthOf(now)
	var latest time.Time
	for _, a := range articles {
		if d, ok := ParseDate(a.PublishDate); ok && !d.After(now) && d.After(latest) {
			latest = d
		}
	}
	if !latest.IsZero() {
		end = monthOf(latest)
	}

	return Window{Start: end.AddDate(0, -11, 0), End: end}
}

func rawCompanies(k models.Keywords) []string        { return k.Companies }
func rawCountries(k models.Keywords) []string        { return k.Countries }
func rawAttackTechniques(k models.Keywords) []string { return k.AttackTechniques }
func rawAttackers(k models.Keywords) []string        { return k.Attackers }
func rawSectors(k models.Keywords) []string          { return k.Sectors }

type bucketAcc struct {
	count int
	ids   map[string]bool
	refs  []ArticleRef
}

func bucketize(kept []retained, dim keywords.Dimension, raws func(models.Keywords) []string) []Bucket {
	acc := make(map[string]*bucketAcc)

	for _, r := range kept {
		// One article contributes at most once per canonical label,
		// however many raw variants it carries.
		seen := make(map[string]bool)
		for _, raw := range raws(r.article.Keywords) {
			label, ok := keywords.Normalize(dim, raw)
			if !ok || seen[label] {
				continue
			}
			seen[label] = true

			b := acc[label]
			if b == nil {
				b = &bucketAcc{ids: make(map[string]bool)}
				acc[label] = b
			}
			if !b.ids[r.article.ID] {
				b.ids[r.article.ID] = true
				b.count++
				b.refs = append(b.refs, ArticleRef{
					ID:    r.article.ID,
					Title: r.article.Title,
					Date:  r.article.PublishDate,
					URL:   r.article.URL,
				})
			}
		}
	}

	buckets := make([]Bucket, 0, len(acc))
	for label, b := range acc {
		buckets = append(buckets, Bucket{Label: label, Count: b.count, Articles: b.refs})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})

	return buckets
}

func monthlySeries(kept []retained, w Window) []MonthCount {
	counts := make(map[time.Time]int)
	for _, r := range kept {
		counts[monthOf(r.date)]++
	}

	months := w.Months()
	series := make([]MonthCount, 0, len(months))
	for _, m := range months {
		series = append(series, MonthCount{
			Label: m.Format(MonthLabelFormat),
			Value: counts[m],
		})
	}
	return series
}

func head(buckets []Bucket, n int) []Bucket {
	if len(buckets) > n {
		return buckets[:n]
	}
	return buckets
}

func headOf(buckets []Bucket) Head {
	if len(buckets) == 0 {
		return Head{Label: "N/A", Count: 0}
	}
	return Head{Label: buckets[0].Label, Count: buckets[0].Count}
}
