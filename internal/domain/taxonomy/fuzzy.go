package taxonomy

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FuzzyMatch is one vocabulary term ranked against a query.
type FuzzyMatch struct {
	Term     string
	Kind     string // "category" or "tag"
	Score    int    // Similarity score (higher = better match, max 100)
	Distance int    // Levenshtein distance (lower = closer)
}

// RankTerms scores every vocabulary term against the query and returns the
// best matches, highest score first. Terms scoring below minScore are
// dropped. This is the fallback when the full-text index finds nothing, so it
// deliberately tolerates typos like "grocerys".
func RankTerms(query string, terms []string, kind string, minScore, limit int) []FuzzyMatch {
	if limit <= 0 {
		limit = 10
	}

	normalized := strings.ToUpper(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}

	var results []FuzzyMatch
	for _, term := range terms {
		candidate := strings.ToUpper(term)
		score := similarityScore(normalized, candidate)
		if score < minScore {
			continue
		}
		results = append(results, FuzzyMatch{
			Term:     term,
			Kind:     kind,
			Score:    score,
			Distance: fuzzy.LevenshteinDistance(normalized, candidate),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// similarityScore combines containment, Levenshtein distance and subsequence
// rank into a 0-100 score. Containment scores high because vocabulary entries
// like "Food & Dining" should match the query "food".
func similarityScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}

	if strings.Contains(s1, s2) && len(s1) > 0 {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) && len(s2) > 0 {
		return 75 + (25 * len(s1) / len(s2))
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 0
	}

	distance := fuzzy.LevenshteinDistance(s1, s2)
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	subseqScore := 0
	if rank := fuzzy.RankMatch(s1, s2); rank >= 0 && rank < len(s2) {
		subseqScore = 60 - (rank * 40 / len(s2))
	}

	if subseqScore > levenshteinScore {
		return subseqScore
	}
	return levenshteinScore
}
