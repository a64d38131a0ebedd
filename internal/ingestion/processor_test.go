package ingestion

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/cybernews/backend/internal/keywords"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestCleanTextStripsChrome(t *testing.T) {
	doc := parseHTML(t, `
<html><body>
<nav>Home | About</nav>
<script>var x = 1;</script>
<style>.a { color: red }</style>
<article>Ransomware   crippled the
hospital network.</article>
<footer>Copyright</footer>
</body></html>`)

	text := cleanText(doc)
	require.Equal(t, "Ransomware crippled the hospital network.", text)
}

func TestExtractTitle(t *testing.T) {
	doc := parseHTML(t, `<html><head><title> Breach at Acme </title></head><body><h1>Other</h1></body></html>`)
	require.Equal(t, "Breach at Acme", extractTitle(doc))

	doc = parseHTML(t, `<html><body><h1>Fallback Headline</h1></body></html>`)
	require.Equal(t, "Fallback Headline", extractTitle(doc))

	doc = parseHTML(t, `<html><body><p>no headline</p></body></html>`)
	require.Equal(t, "Untitled", extractTitle(doc))
}

func TestExtractPublishDate(t *testing.T) {
	doc := parseHTML(t, `<html><head>
<meta property="article:published_time" content="2024-03-01T08:00:00Z">
</head><body><time datetime="2024-02-01">Feb 1</time></body></html>`)
	require.Equal(t, "2024-03-01T08:00:00Z", extractPublishDate(doc))

	doc = parseHTML(t, `<html><body><time datetime="2024-02-01">Feb 1</time></body></html>`)
	require.Equal(t, "2024-02-01", extractPublishDate(doc))

	// No date in the document falls back to today.
	doc = parseHTML(t, `<html><body><p>undated</p></body></html>`)
	require.Equal(t, time.Now().UTC().Format("2006-01-02"), extractPublishDate(doc))
}

func TestScanTriggers(t *testing.T) {
	text := "A ransomware crew hit a hospital and leaked data via phishing."

	attacks := scanTriggers(text, keywords.DimAttackTechnique)
	require.Contains(t, attacks, "ransomware")
	require.Contains(t, attacks, "phishing")
	require.NotContains(t, attacks, "xss")

	sectors := scanTriggers(text, keywords.DimSector)
	require.Contains(t, sectors, "hospital")
	// "hit" must not register the "it" sector trigger.
	require.NotContains(t, sectors, "it")
}

func TestScanTriggersShortTriggerBoundaries(t *testing.T) {
	attacks := scanTriggers("Tracked as CVE-2024-12345, the flaw allows a dos condition.", keywords.DimAttackTechnique)
	require.Contains(t, attacks, "cve")
	require.Contains(t, attacks, "dos")

	// Embedded occurrences do not count.
	attacks = scanTriggers("Vendors shipped updates.", keywords.DimAttackTechnique)
	require.NotContains(t, attacks, "dos")

	sectors := scanTriggers("The IT department restored backups.", keywords.DimSector)
	require.Contains(t, sectors, "it")

	sectors = scanTriggers("Profits from commodities trading.", keywords.DimSector)
	require.NotContains(t, sectors, "it")
	require.NotContains(t, sectors, "oil")
}
