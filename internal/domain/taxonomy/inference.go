package taxonomy

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/gocarina/gocsv"
)

//go:embed keywords.csv
var keywordsCSV []byte

// keywordRow is one line of the embedded keyword taxonomy. "merchant" terms
// match against merchant names, "category" terms match against the names in
// the user's category vocabulary.
type keywordRow struct {
	Bucket string `csv:"bucket"`
	Kind   string `csv:"kind"`
	Term   string `csv:"term"`
}

// bucket groups the keywords for one spending area. Buckets are checked in
// the order they first appear in keywords.csv, so food wins over fuel, fuel
// over retail, and retail over travel when a merchant name matches several.
type bucket struct {
	name          string
	merchantTerms []string
	categoryHints []string
}

// Inferencer maps merchant names onto a user's category vocabulary using an
// Aho-Corasick matcher over the embedded keyword taxonomy. A single pass
// through the merchant name finds every bucket keyword; the highest-priority
// bucket wins. The matcher is built once and never mutated, so Inferencer is
// safe for concurrent use.
type Inferencer struct {
	buckets       []bucket
	matcher       *ahocorasick.Matcher
	patternBucket []int // matcher pattern index -> bucket index
}

// NewInferencer builds the keyword matcher from the embedded taxonomy.
func NewInferencer() (*Inferencer, error) {
	var rows []*keywordRow
	if err := gocsv.UnmarshalBytes(keywordsCSV, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse keyword taxonomy: %w", err)
	}

	inf := &Inferencer{}
	bucketIndex := make(map[string]int)

	for _, row := range rows {
		term := strings.ToLower(strings.TrimSpace(row.Term))
		if term == "" {
			continue
		}

		idx, ok := bucketIndex[row.Bucket]
		if !ok {
			idx = len(inf.buckets)
			bucketIndex[row.Bucket] = idx
			inf.buckets = append(inf.buckets, bucket{name: row.Bucket})
		}

		switch row.Kind {
		case "merchant":
			inf.buckets[idx].merchantTerms = append(inf.buckets[idx].merchantTerms, term)
		case "category":
			inf.buckets[idx].categoryHints = append(inf.buckets[idx].categoryHints, term)
		default:
			return nil, fmt.Errorf("unknown keyword kind %q for bucket %q", row.Kind, row.Bucket)
		}
	}

	var patterns [][]byte
	for i, b := range inf.buckets {
		for _, term := range b.merchantTerms {
			patterns = append(patterns, []byte(term))
			inf.patternBucket = append(inf.patternBucket, i)
		}
	}
	if len(patterns) > 0 {
		inf.matcher = ahocorasick.NewMatcher(patterns)
	}

	return inf, nil
}

// matchBucket finds the highest-priority bucket whose merchant keywords occur
// in the name. Returns nil when no keyword matches.
func (inf *Inferencer) matchBucket(merchantName string) *bucket {
	if inf.matcher == nil || merchantName == "" {
		return nil
	}

	normalized := strings.ToLower(merchantName)
	matches := inf.matcher.Match([]byte(normalized))
	if len(matches) == 0 {
		return nil
	}

	best := -1
	for _, idx := range matches {
		if idx < 0 || idx >= len(inf.patternBucket) {
			continue
		}
		b := inf.patternBucket[idx]
		if best == -1 || b < best {
			best = b
		}
	}
	if best == -1 {
		return nil
	}

	return &inf.buckets[best]
}

// ResolveCategory maps a merchant name onto one of the user's category names.
// The matched bucket's category hints are tried in order against the
// vocabulary with a case-insensitive substring check, so a food-bucket
// merchant resolves to "Food & Dining" when the user has such a category. When
// nothing matches the vocabulary's own "Other"-like entry wins, then the first
// entry, then the literal "Other".
func (inf *Inferencer) ResolveCategory(merchantName string, availableCategories []string) string {
	if b := inf.matchBucket(merchantName); b != nil {
		for _, hint := range b.categoryHints {
			for _, category := range availableCategories {
				if strings.Contains(strings.ToLower(category), hint) {
					return category
				}
			}
		}
	}

	return fallbackCategory(availableCategories)
}

func fallbackCategory(availableCategories []string) string {
	for _, category := range availableCategories {
		if strings.EqualFold(category, "Other") {
			return category
		}
	}
	if len(availableCategories) > 0 {
		return availableCategories[0]
	}
	return "Other"
}

// maxSuggestedTags caps how many tags a single receipt may suggest.
const maxSuggestedTags = 3

// SuggestTags picks up to three tags from the user's tag vocabulary, in
// vocabulary order. A tag matches when it occurs in the merchant name, when it
// contains the merchant's first word, or when the same holds against the
// resolved category. When nothing matches, a literal "receipt" tag is
// preferred, then the first tag in the vocabulary; an empty vocabulary
// suggests nothing.
func (inf *Inferencer) SuggestTags(merchantName, category string, availableTags []string) []string {
	merchant := strings.ToLower(merchantName)
	cat := strings.ToLower(category)
	merchantWord := firstWord(merchant)
	catWord := firstWord(cat)

	var suggested []string
	for _, tag := range availableTags {
		t := strings.ToLower(tag)
		if t == "" {
			continue
		}

		match := strings.Contains(merchant, t) ||
			strings.Contains(cat, t) ||
			(merchantWord != "" && strings.Contains(t, merchantWord)) ||
			(catWord != "" && strings.Contains(t, catWord))
		if match {
			suggested = append(suggested, tag)
			if len(suggested) == maxSuggestedTags {
				return suggested
			}
		}
	}

	if len(suggested) > 0 {
		return suggested
	}

	for _, tag := range availableTags {
		if strings.EqualFold(tag, "receipt") {
			return []string{tag}
		}
	}
	if len(availableTags) > 0 {
		return []string{availableTags[0]}
	}
	return nil
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
