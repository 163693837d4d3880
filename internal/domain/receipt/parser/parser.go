// Package parser extracts structured expense fields from flat OCR receipt
// text using pattern matching and positional heuristics. It is the fallback
// path when structured extraction is unavailable and must tolerate arbitrary
// malformed input without failing.
package parser

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// LineItem is a single purchased item on a receipt.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Quantity    int     `json:"quantity"`
}

// ParsedReceipt holds the extracted expense fields. All fields are optional;
// the zero value means "not found", never "zero amount".
type ParsedReceipt struct {
	MerchantName string     `json:"merchantName,omitempty"`
	TotalAmount  float64    `json:"totalAmount,omitempty"`
	Date         string     `json:"date,omitempty"`
	TaxAmount    float64    `json:"taxAmount,omitempty"`
	Subtotal     float64    `json:"subtotal,omitempty"`
	Category     string     `json:"category,omitempty"`
	PaymentDate  string     `json:"paymentDate,omitempty"`
	Items        []LineItem `json:"items,omitempty"`
}

// CategoryResolver maps a merchant name onto the caller's category vocabulary.
type CategoryResolver interface {
	ResolveCategory(merchantName string, availableCategories []string) string
}

// Parser runs the heuristic extraction rules over OCR text lines.
type Parser struct {
	resolver CategoryResolver
}

// NewParser creates a parser. resolver may be nil; category then falls back to
// the generic bucket behavior.
func NewParser(resolver CategoryResolver) *Parser {
	return &Parser{resolver: resolver}
}

// merchantScanDepth bounds the positional merchant scan: real receipts carry
// the merchant in the header, everything below is address/item noise.
const merchantScanDepth = 5

// Parse extracts expense fields from receipt text lines. It never fails,
// regardless of how malformed the input is; fields that cannot be extracted
// stay absent.
func (p *Parser) Parse(lines []string, availableCategories []string) ParsedReceipt {
	var result ParsedReceipt

	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	result.MerchantName = scanMerchant(cleaned)
	p.scanAmounts(cleaned, &result)
	p.scanDate(cleaned, &result)

	if result.MerchantName != "" {
		if p.resolver != nil {
			result.Category = p.resolver.ResolveCategory(result.MerchantName, availableCategories)
		} else {
			result.Category = fallbackCategory(availableCategories)
		}
	} else {
		result.Category = "Other"
	}

	return result
}

// scanMerchant inspects only the first few lines. The first line (in document
// order) yielding an accepted candidate wins.
func scanMerchant(lines []string) string {
	depth := merchantScanDepth
	if len(lines) < depth {
		depth = len(lines)
	}

	for i := 0; i < depth; i++ {
		for _, re := range merchantPatterns {
			candidate := strings.TrimSpace(re.FindString(lines[i]))
			if acceptMerchant(candidate) {
				return candidate
			}
		}
	}

	return ""
}

// acceptMerchant rejects candidates that are too short or contain digits.
func acceptMerchant(candidate string) bool {
	if len(candidate) <= 3 {
		return false
	}
	for _, r := range candidate {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// scanAmounts runs the ordered amount rule table over every line.
// Totals keep the maximum across all lines and patterns: receipts repeat
// smaller subtotals before the final total, so larger always wins.
// Tax is first-match-wins.
func (p *Parser) scanAmounts(lines []string, result *ParsedReceipt) {
	taxFound := false

	for _, line := range lines {
		for _, rule := range amountRules {
			if rule.field == fieldTax && taxFound {
				continue
			}

			value, ok := matchAmount(rule, line)
			if !ok {
				continue
			}

			switch rule.field {
			case fieldTotal:
				if value > 0 && value > result.TotalAmount {
					result.TotalAmount = value
				}
			case fieldTax:
				if value > 0 {
					result.TaxAmount = value
					taxFound = true
				}
			}
		}
	}
}

// matchAmount applies one amount rule to a line.
func matchAmount(rule amountRule, line string) (float64, bool) {
	groups := rule.re.FindStringSubmatch(line)
	if groups == nil {
		return 0, false
	}

	// First non-empty capture group carries the amount.
	for _, g := range groups[1:] {
		if g == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(g, ",", ""))
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	}

	return 0, false
}

// scanDate tries each date pattern per line, in order; the first line
// producing a parseable date wins. The payment date is assumed equal to the
// transaction date.
func (p *Parser) scanDate(lines []string, result *ParsedReceipt) {
	for _, line := range lines {
		for _, pattern := range datePatterns {
			raw := pattern.re.FindString(line)
			if raw == "" {
				continue
			}

			iso, ok := parseDate(raw, pattern.layouts)
			if !ok {
				continue
			}

			result.Date = iso
			result.PaymentDate = iso
			return
		}
	}
}

// fallbackCategory implements the generic ladder used when no resolver is
// wired: a category literally named "other" if present, else the first
// vocabulary entry, else the literal "Other".
func fallbackCategory(availableCategories []string) string {
	for _, c := range availableCategories {
		if strings.EqualFold(c, "other") {
			return c
		}
	}
	if len(availableCategories) > 0 {
		return availableCategories[0]
	}
	return "Other"
}
