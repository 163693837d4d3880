package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/parser"
	"github.com/FACorreiaa/receipt-pipeline/pkg/money"
)

// ErrNoExpenseDocument signals the analysis service returned no expense
// document at all. This is "no data", not "empty data", and triggers the
// heuristic fallback path.
var ErrNoExpenseDocument = errors.New("no expense document in analysis response")

// SummaryField is one named document-level field from the analysis service.
type SummaryField struct {
	Type  string
	Value string
}

// ItemField is one named field inside a line-item group.
type ItemField struct {
	Type  string
	Value string
}

// ExpenseDocument is the neutral shape of a structured analysis result.
type ExpenseDocument struct {
	SummaryFields []SummaryField
	LineItems     [][]ItemField
}

// ExpenseAPI is the external structured-extraction service contract.
type ExpenseAPI interface {
	AnalyzeExpense(ctx context.Context, data []byte) (*ExpenseDocument, error)
}

// StructuredExtractor asks the analysis service for named expense fields
// directly from the document bytes, bypassing plain-text parsing. Unlike the
// other pipeline stages it DOES fail: the caller catches the error and falls
// back to OCR plus the heuristic parser.
type StructuredExtractor struct {
	api    ExpenseAPI
	logger *slog.Logger
}

// NewStructuredExtractor creates a structured extractor over the given service.
func NewStructuredExtractor(api ExpenseAPI, logger *slog.Logger) *StructuredExtractor {
	return &StructuredExtractor{api: api, logger: logger}
}

// Analyze extracts a ParsedReceipt from document bytes.
func (e *StructuredExtractor) Analyze(ctx context.Context, data []byte) (*parser.ParsedReceipt, error) {
	if e.api == nil {
		return nil, fmt.Errorf("no expense analysis service configured")
	}

	doc, err := e.api.AnalyzeExpense(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("expense analysis failed: %w", err)
	}
	if doc == nil {
		return nil, ErrNoExpenseDocument
	}

	result := mapExpenseDocument(doc)
	return result, nil
}

// mapExpenseDocument converts the service's named fields into a ParsedReceipt.
// Amounts are only kept when strictly positive; text and dates only when
// non-empty.
func mapExpenseDocument(doc *ExpenseDocument) *parser.ParsedReceipt {
	result := &parser.ParsedReceipt{}

	for _, f := range doc.SummaryFields {
		value := strings.TrimSpace(f.Value)
		if value == "" {
			continue
		}

		switch strings.ToUpper(f.Type) {
		case "VENDOR_NAME", "MERCHANT_NAME":
			if result.MerchantName == "" {
				result.MerchantName = value
			}
		case "TOTAL", "AMOUNT_PAID":
			if result.TotalAmount == 0 {
				if v, ok := parsePositiveAmount(value); ok {
					result.TotalAmount = v
				}
			}
		case "DATE", "INVOICE_RECEIPT_DATE":
			if result.Date == "" {
				result.Date = normalizeDate(value)
				result.PaymentDate = result.Date
			}
		case "TAX", "TOTAL_TAX":
			if result.TaxAmount == 0 {
				if v, ok := parsePositiveAmount(value); ok {
					result.TaxAmount = v
				}
			}
		case "SUBTOTAL":
			if result.Subtotal == 0 {
				if v, ok := parsePositiveAmount(value); ok {
					result.Subtotal = v
				}
			}
		}
	}

	for _, group := range doc.LineItems {
		item := mapLineItem(group)
		if item != nil {
			result.Items = append(result.Items, *item)
		}
	}

	return result
}

// mapLineItem reads description and amount from an item-field group.
// Quantity always defaults to 1; this extractor does not attempt quantity
// extraction.
func mapLineItem(group []ItemField) *parser.LineItem {
	item := parser.LineItem{Quantity: 1}

	for _, f := range group {
		value := strings.TrimSpace(f.Value)
		if value == "" {
			continue
		}

		switch strings.ToUpper(f.Type) {
		case "ITEM", "DESCRIPTION":
			if item.Description == "" {
				item.Description = value
			}
		case "PRICE", "AMOUNT":
			if item.Amount == 0 {
				if v, ok := parsePositiveAmount(value); ok {
					item.Amount = v
				}
			}
		}
	}

	if item.Description == "" && item.Amount == 0 {
		return nil
	}
	return &item
}

// parsePositiveAmount strips currency symbols and returns the value when it
// is strictly greater than zero.
func parsePositiveAmount(raw string) (float64, bool) {
	amount, err := money.ParseString(raw, money.USD)
	if err != nil || !amount.IsPositive() {
		return 0, false
	}
	return amount.Float64(), true
}

// structuredDateLayouts covers the date shapes the analysis service emits.
var structuredDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

// normalizeDate re-emits a parseable date as ISO; an unparsable date is kept
// verbatim rather than discarded.
func normalizeDate(raw string) string {
	for _, layout := range structuredDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
