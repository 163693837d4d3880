package parser

import (
	"regexp"
	"time"
)

// field identifies which ParsedReceipt field an amount rule feeds.
type field int

const (
	fieldTotal field = iota
	fieldTax
)

// amountRule pairs a pattern with its target field. Rule order matters: per
// line the rules run top to bottom, and for first-match-wins fields the
// earliest hit sticks.
type amountRule struct {
	field field
	re    *regexp.Regexp
}

// amountRules is the ordered extraction table for monetary fields.
// Total rules keep the maximum across all matches; tax rules are
// first-match-wins. New receipt formats are added here, not in control flow.
var amountRules = []amountRule{
	// Labeled totals: "Total $9.79", "Amount Due: 12.00", "GRAND TOTAL $90.11"
	{fieldTotal, regexp.MustCompile(`(?i)(?:grand total|amount due|balance due|total)\s*:?\s*\$?\s*(\d[\d,]*(?:\.\d{1,2})?)`)},
	// Trailing label: "$9.79 Total", "12.00 due"
	{fieldTotal, regexp.MustCompile(`(?i)\$?\s*(\d[\d,]*\.\d{2})\s+(?:total|due|balance)\b`)},
	// Bare anchored amount: "$9.79" alone, or "$9.79 total", or line ending in "$9.79"
	{fieldTotal, regexp.MustCompile(`(?i)^\$\s*(\d[\d,]*\.\d{2})(?:\s+total)?\s*$|\$\s*(\d[\d,]*\.\d{2})\s*$`)},
	// Labeled tax: "Tax $6.87", "HST: 1.30", "Tax (8.25%) $6.87"
	{fieldTax, regexp.MustCompile(`(?i)(?:tax|hst|gst|pst)\b(?:\s*\([^)]*\))?[^\d$%]*\$?\s*(\d[\d,]*(?:\.\d{1,2})?)`)},
	// Trailing tax label: "$6.87 tax"
	{fieldTax, regexp.MustCompile(`(?i)\$?\s*(\d[\d,]*\.\d{2})\s+(?:tax|hst|gst|pst)\b`)},
}

// merchantPatterns are tested in order per line: the stricter all-caps form
// first, then the capitalized mixed-case form. Both allow spaces, '&' and '-';
// digits disqualify a candidate after the match.
var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][A-Z\s&\-]{3,29}`),
	regexp.MustCompile(`^[A-Z][A-Za-z\s&\-]{3,29}`),
}

// datePattern pairs a recognizing regexp with the candidate layouts used to
// parse what it finds.
type datePattern struct {
	re      *regexp.Regexp
	layouts []string
}

// datePatterns are tried in order per line; the first parseable hit wins.
var datePatterns = []datePattern{
	// Slash-separated: 01/15/2026, 1/5/26
	{regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`), []string{"1/2/2006", "1/2/06"}},
	// Dash-separated: 01-15-2026
	{regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{2,4}`), []string{"1-2-2006", "1-2-06"}},
	// ISO: 2026-01-15
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), []string{"2006-01-02"}},
	// Month name: January 15, 2026 / Jan 15 2026
	{
		regexp.MustCompile(`(?i)(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}`),
		[]string{"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006", "Jan. 2, 2006", "Jan. 2 2006"},
	},
}

// isoDate is the canonical calendar date format emitted by the pipeline.
const isoDate = "2006-01-02"

// parseDate converts a matched date string to ISO form. Layout validation
// rejects impossible dates (month 26 etc.), which makes overlapping patterns
// safe: an unparsable match falls through to the next pattern.
func parseDate(raw string, layouts []string) (string, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(isoDate), true
		}
	}
	return "", false
}
