// Package scoring computes the hybrid quality score for a draft report:
// deterministic structural checks worth 0-4 points combined with a
// qualitative judgment worth 1-6, clamped to the 1-10 scale.
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Section keyword patterns, whole-word, singular or plural.
var sectionPatterns = map[string]*regexp.Regexp{
	"strengths":     regexp.MustCompile(`(?i)\bstrengths?\b`),
	"weaknesses":    regexp.MustCompile(`(?i)\bweakness(?:es)?\b`),
	"opportunities": regexp.MustCompile(`(?i)\bopportunit(?:y|ies)\b`),
	"threats":       regexp.MustCompile(`(?i)\bthreats?\b`),
}

// Numeric citation patterns: currency amounts, percentages, multiples,
// named financial ratios, score fractions, and 4-digit years.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$[\d,]+\.?\d*[BMK]?`),
	regexp.MustCompile(`\d+\.?\d*\s*%`),
	regexp.MustCompile(`\d+\.?\d*x`),
	regexp.MustCompile(`(?i)P/E[:\s]+\d+`),
	regexp.MustCompile(`(?i)P/S[:\s]+\d+`),
	regexp.MustCompile(`(?i)P/B[:\s]+\d+`),
	regexp.MustCompile(`(?i)EV/EBITDA[:\s]+\d+`),
	regexp.MustCompile(`(?i)PEG[:\s]+\d+`),
	regexp.MustCompile(`(?i)VIX[:\s]+\d+`),
	regexp.MustCompile(`(?i)Beta[:\s]+\d+`),
	regexp.MustCompile(`\d+/100`),
	regexp.MustCompile(`(?i)CAGR[:\s]*\d+`),
	regexp.MustCompile(`\d{4}`),
}

// Per-source keyword sets used by the coverage check.
var sourceKeywords = map[string][]string{
	"financials": {"revenue", "net margin", "debt", "cash flow", "eps", "earnings"},
	"volatility": {"beta", "volatility", "vix", "price swing"},
	"macro":      {"gdp", "interest rate", "inflation", "unemployment", "fed"},
	"valuation":  {"p/e", "p/s", "p/b", "ev/ebitda", "peg", "valuation", "market cap"},
	"news":       {"news", "analyst", "article", "report"},
	"sentiment":  {"sentiment", "bullish", "bearish", "reddit", "finnhub"},
}

var bulletPattern = regexp.MustCompile(`(?m)[-*•]\s+\w|^\d+\.\s+\w`)

// SectionCheck reports which SWOT section keywords appear in the draft.
// 4/4 present scores 2, at least 2 scores 1. Max 2 points.
type SectionCheck struct {
	Sections     map[string]bool `json:"sections"`
	PresentCount int             `json:"present_count"`
	Score        int             `json:"score"`
	MaxScore     int             `json:"max_score"`
}

func CheckSections(report string) SectionCheck {
	found := make(map[string]bool, len(sectionPatterns))
	present := 0
	for name, pat := range sectionPatterns {
		ok := pat.MatchString(report)
		found[name] = ok
		if ok {
			present++
		}
	}
	score := 0
	switch {
	case present == 4:
		score = 2
	case present >= 2:
		score = 1
	}
	return SectionCheck{Sections: found, PresentCount: present, Score: score, MaxScore: 2}
}

// CitationCheck counts unique numeric citations across all patterns.
// >=10 scores 3, >=6 scores 2, >=3 scores 1. Max 3 points.
type CitationCheck struct {
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
	Score    int      `json:"score"`
	MaxScore int      `json:"max_score"`
}

func CountCitations(report string) CitationCheck {
	unique := make(map[string]struct{})
	for _, pat := range citationPatterns {
		for _, m := range pat.FindAllString(report, -1) {
			unique[m] = struct{}{}
		}
	}
	examples := make([]string, 0, len(unique))
	for m := range unique {
		examples = append(examples, m)
	}
	sort.Strings(examples)
	if len(examples) > 10 {
		examples = examples[:10]
	}

	count := len(unique)
	score := 0
	switch {
	case count >= 10:
		score = 3
	case count >= 6:
		score = 2
	case count >= 3:
		score = 1
	}
	return CitationCheck{Count: count, Examples: examples, Score: score, MaxScore: 3}
}

// CoverageCheck verifies the draft references the sources that were
// actually available. Coverage >=75% scores 2, >=50% scores 1. Max 2.
type CoverageCheck struct {
	SourcesReferenced map[string]bool `json:"sources_referenced"`
	ReferencedCount   int             `json:"referenced_count"`
	TotalAvailable    int             `json:"total_available"`
	CoveragePct       float64         `json:"coverage_pct"`
	Score             int             `json:"score"`
	MaxScore          int             `json:"max_score"`
}

func CheckSourceCoverage(report string, sourcesAvailable []string) CoverageCheck {
	lower := strings.ToLower(report)
	referenced := make(map[string]bool, len(sourcesAvailable))
	count := 0
	for _, source := range sourcesAvailable {
		hit := false
		for _, kw := range sourceKeywords[source] {
			if strings.Contains(lower, kw) {
				hit = true
				break
			}
		}
		referenced[source] = hit
		if hit {
			count++
		}
	}

	pct := 0.0
	if len(sourcesAvailable) > 0 {
		pct = float64(count) / float64(len(sourcesAvailable)) * 100
	}
	score := 0
	switch {
	case pct >= 75:
		score = 2
	case pct >= 50:
		score = 1
	}
	return CoverageCheck{
		SourcesReferenced: referenced,
		ReferencedCount:   count,
		TotalAvailable:    len(sourcesAvailable),
		CoveragePct:       math.Round(pct*10) / 10,
		Score:             score,
		MaxScore:          2,
	}
}

// BalanceCheck counts bullet items per section. Balanced means every
// section holds at least 25% of the mean item count. Max 1 point.
type BalanceCheck struct {
	ItemCounts map[string]int `json:"item_counts,omitempty"`
	Balanced   bool           `json:"balanced"`
	Score      int            `json:"score"`
	MaxScore   int            `json:"max_score"`
}

var sectionStems = []string{"strength", "weakness", "opportunit", "threat"}

func CheckBalance(report string) BalanceCheck {
	lower := strings.ToLower(report)

	starts := make(map[string]int, len(sectionStems))
	var boundaries []int
	for _, stem := range sectionStems {
		if idx := strings.Index(lower, stem); idx >= 0 {
			starts[stem] = idx
			boundaries = append(boundaries, idx)
		}
	}
	if len(starts) == 0 {
		return BalanceCheck{Balanced: false, Score: 0, MaxScore: 1}
	}
	sort.Ints(boundaries)

	counts := make(map[string]int, len(starts))
	for stem, start := range starts {
		end := len(lower)
		for _, b := range boundaries {
			if b > start {
				end = b
				break
			}
		}
		items := len(bulletPattern.FindAllString(lower[start:end], -1))
		if items < 1 {
			items = 1 // section header exists, count it as one item
		}
		counts[stem] = items
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	mean := float64(total) / float64(len(counts))
	balanced := mean > 0
	for _, c := range counts {
		if float64(c) < mean*0.25 {
			balanced = false
			break
		}
	}

	score := 0
	if balanced {
		score = 1
	}
	return BalanceCheck{ItemCounts: counts, Balanced: balanced, Score: score, MaxScore: 1}
}

// DeterministicResult combines the four structural checks. The raw 0-8 sum
// is rescaled linearly to the 0-4 deterministic share of the final score.
type DeterministicResult struct {
	Sections   SectionCheck  `json:"sections"`
	Citations  CitationCheck `json:"citations"`
	Sources    CoverageCheck `json:"sources"`
	Balance    BalanceCheck  `json:"balance"`
	TotalScore int           `json:"total_score"`
	MaxScore   int           `json:"max_score"`
	Normalized float64       `json:"normalized_score"`
}

func RunDeterministicChecks(report string, sourcesAvailable []string) DeterministicResult {
	sections := CheckSections(report)
	citations := CountCitations(report)
	coverage := CheckSourceCoverage(report, sourcesAvailable)
	balance := CheckBalance(report)

	total := sections.Score + citations.Score + coverage.Score + balance.Score
	const maxScore = 8
	normalized := float64(total) / maxScore * 4

	return DeterministicResult{
		Sections:   sections,
		Citations:  citations,
		Sources:    coverage,
		Balance:    balance,
		TotalScore: total,
		MaxScore:   maxScore,
		Normalized: math.Round(normalized*100) / 100,
	}
}

func (d DeterministicResult) summary() string {
	balanced := "Unbalanced"
	if d.Balance.Balanced {
		balanced = "Balanced"
	}
	return strings.Join([]string{
		fmt.Sprintf("Deterministic Analysis (%d/%d pts):", d.TotalScore, d.MaxScore),
		fmt.Sprintf("  - SWOT Sections: %d/4 present", d.Sections.PresentCount),
		fmt.Sprintf("  - Numeric Citations: %d found", d.Citations.Count),
		fmt.Sprintf("  - Data Source Coverage: %.1f%%", d.Sources.CoveragePct),
		fmt.Sprintf("  - Section Balance: %s", balanced),
	}, "\n")
}
