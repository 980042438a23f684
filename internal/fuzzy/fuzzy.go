// Package fuzzy implements confidence scoring for candidate search results:
// a normalized string-similarity term blended with a logarithmic popularity
// term, plus the extra-word rejection heuristic and the per-platform
// confidence thresholds (spec §4.6).
//
// This is a direct port of the original empack v2 algorithm: Levenshtein
// similarity weighted 70%, download popularity weighted 30%.
package fuzzy

import (
	"math"
	"strings"

	"github.com/agext/levenshtein"

	"empack/internal/primitives"
)

// Match carries the overall confidence score alongside its two components,
// kept around for debugging/telemetry the way the original FuzzyMatch does.
type Match struct {
	Score              float64
	StringSimilarity   float64
	DownloadConfidence float64
}

// CalculateConfidence scores a single candidate against a query. It is a
// pure function: same inputs always produce the same Match, which is what
// makes it safe to call from both the ranked search pipeline (C6/C7) and the
// sync planner without drifting onto two different confidence scales
// (SPEC_FULL.md, Open Question 3).
func CalculateConfidence(query, title, slug string, downloads, maxDownloads int64) Match {
	titleSimilarity := normalizedSimilarity(query, title)
	slugSimilarity := normalizedSimilarity(query, slug)
	stringSimilarity := math.Max(titleSimilarity, slugSimilarity)

	var downloadConfidence float64
	if maxDownloads > 0 && downloads > 0 {
		downloadConfidence = math.Log10(float64(downloads)) / math.Log10(float64(maxDownloads))
	}

	score := stringSimilarity*0.7 + downloadConfidence*0.3

	return Match{
		Score:              score,
		StringSimilarity:   stringSimilarity,
		DownloadConfidence: downloadConfidence,
	}
}

// normalizedSimilarity returns 1.0 for identical strings and approaches 0.0
// as the two strings diverge, matching strsim's normalized_levenshtein: the
// edit distance is divided by the length of the longer string and
// subtracted from 1.
func normalizedSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.Distance(a, b, nil)
	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}

// HasExtraWords rejects a candidate whose title is a superset variant of the
// query — e.g. "Apotheosis Ascended" given the query "Apotheosis" — while
// accepting acronym expansions like "Just Enough Items" for "JEI", where the
// words themselves differ rather than merely adding to the query's words.
func HasExtraWords(query, result string) bool {
	queryWords := strings.Fields(strings.ToLower(query))
	resultWords := strings.Fields(strings.ToLower(result))

	if len(resultWords) <= len(queryWords) {
		return false
	}

	for _, qw := range queryWords {
		found := false
		for _, rw := range resultWords {
			if strings.Contains(rw, qw) || strings.Contains(qw, rw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MeetsThreshold applies the platform-specific confidence bar: Modrinth is
// the preferred, stricter platform (0.90); CurseForge is the fallback with a
// lower bar (0.85).
func MeetsThreshold(score float64, platform primitives.Platform) bool {
	if platform == primitives.CurseForge {
		return score >= 0.85
	}
	return score >= 0.90
}
