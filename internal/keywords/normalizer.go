// Package keywords maps the noisy keyword strings extracted from news
// articles onto the closed taxonomy the dashboard aggregates over.
package keywords

import "strings"

// Dimension names match the keyword fields on stored articles, so they double
// as the bucket keys of the statistics response.
type Dimension string

const (
	DimAttackTechnique Dimension = "attack_techniques"
	DimSector          Dimension = "sectors"
	DimCountry         Dimension = "countries"
	DimAttacker        Dimension = "attackers"
	DimCompany         Dimension = "companies"
)

// rule maps a canonical label to the substrings that trigger it. Rules are
// scanned in declared order and the first hit wins, so broader triggers
// ("dos") must come after the buckets that would otherwise swallow them.
type rule struct {
	label    string
	triggers []string
}

var attackRules = []rule{
	{"Phishing", []string{"phishing"}},
	{"Malware", []string{"malware", "ransomware", "trojan", "spyware", "virus"}},
	{"Data Breach", []string{"data breach", "data stolen", "leak", "stealer"}},
	{"Unauthorized Access", []string{"unauthorized access", "access violation", "bruteforce"}},
	{"Remote Code Execution", []string{"rce", "remote code execution"}},
	{"Cross-site Scripting", []string{"xss", "cross-site scripting"}},
	{"System Vulnerability", []string{"vulnerability", "exploit"}},
	{"Injection", []string{"injection", "sql injection", "command injection"}},
	{"DDoS", []string{"ddos", "denial of service", "dos"}},
	{"CVE", []string{"cve"}},
}

var sectorRules = []rule{
	{"Energy", []string{"energy", "oil", "gas", "power"}},
	{"Military", []string{"military", "defense", "army"}},
	{"Financial", []string{"financial", "bank", "insurance", "investment"}},
	{"Government", []string{"government", "ministry", "municipal"}},
	{"Healthcare", []string{"health", "hospital", "clinic", "pharma"}},
	{"Retail", []string{"retail", "shop", "store"}},
	{"Education", []string{"education", "school", "university", "college"}},
	{"Technology", []string{"tech", "software", "hardware", "it"}},
	{"Media", []string{"media", "news", "broadcast", "tv"}},
	{"Telecommunication", []string{"telecom", "telecommunication", "mobile", "network"}},
	{"Industrial Manufacturing", []string{"industrial", "manufacturing", "factory", "plant"}},
	{"Transportation", []string{"transport", "logistics", "shipping", "rail", "airline"}},
}

// attackExceptions are exact matches resolved before the trigger scan, so
// "dos" alone is DoS while "ddos attack" falls through to the DDoS rule.
var attackExceptions = map[string]string{
	"cve":  "CVE",
	"ddos": "DDoS",
	"dos":  "DoS",
}

var countryAliases = []rule{
	{"United States", []string{"us", "usa", "u.s.", "united states", "united states of america", "america"}},
	{"United Kingdom", []string{"uk", "u.k.", "england", "gb", "great britain", "scotland", "wales", "northern ireland"}},
}

// stoplist drops generic non-identifying attacker/company strings entirely.
var stoplist = map[string]bool{
	"attacker":             true,
	"attackers":            true,
	"threat actors":        true,
	"ransomware operators": true,
	"ai":                   true,
}

// Normalize maps raw onto its canonical label for dim. The second return is
// false when no rule matched and the keyword is dropped from aggregation.
// Pure: same input always yields the same output.
func Normalize(dim Dimension, raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return "", false
	}

	switch dim {
	case DimAttackTechnique:
		return normalizeAttack(lower)
	case DimSector:
		return scanRules(sectorRules, lower)
	case DimCountry:
		return normalizeCountry(lower), true
	case DimAttacker, DimCompany:
		if stoplist[lower] {
			return "", false
		}
		return lower, true
	default:
		return "", false
	}
}

func normalizeAttack(lower string) (string, bool) {
	if label, ok := attackExceptions[lower]; ok {
		return label, true
	}
	if strings.HasPrefix(lower, "cve") {
		return "CVE", true
	}
	return scanRules(attackRules, lower)
}

func scanRules(rules []rule, lower string) (string, bool) {
	for _, r := range rules {
		for _, trigger := range r.triggers {
			if strings.Contains(lower, trigger) {
				return r.label, true
			}
		}
	}
	return "", false
}

func normalizeCountry(lower string) string {
	for _, alias := range countryAliases {
		for _, variant := range alias.triggers {
			if lower == variant {
				return alias.label
			}
		}
	}
	return titleCase(lower)
}

// titleCase capitalizes every word uniformly, regardless of length.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

// Triggers returns the raw trigger phrases for dim, used by the ingestion
// pipeline to pull candidate keywords out of article text. Nil for the
// dimensions that are extracted by NER instead.
func Triggers(dim Dimension) []string {
	var rules []rule
	switch dim {
	case DimAttackTechnique:
		rules = attackRules
	case DimSector:
		rules = sectorRules
	default:
		return nil
	}

	var out []string
	for _, r := range rules {
		out = append(out, r.triggers...)
	}
	return out
}
