package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/extract"
	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/parser"
	"github.com/FACorreiaa/receipt-pipeline/pkg/money"
	"github.com/FACorreiaa/receipt-pipeline/pkg/storage"
)

// SuggestedExpense is the advisory expense draft returned to the caller for
// review. The pipeline never persists it.
type SuggestedExpense struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags"`
	PaymentDate string   `json:"paymentDate"`
	ReceiptKey  string   `json:"receiptKey"`
	ReceiptURL  string   `json:"receiptUrl"`
}

// maxDescriptionItems caps how many line items the description lists before
// collapsing the rest into a "+N more" note.
const maxDescriptionItems = 5

const isoDate = "2006-01-02"

// composeSuggestion assembles the expense draft from whichever extraction
// stage produced the ParsedReceipt. The placeholder document's header line
// parses as a merchant name, so it counts as "no merchant found" here.
func composeSuggestion(parsed *parser.ParsedReceipt, ref *storage.Reference, tags []string, today time.Time) *SuggestedExpense {
	merchant := parsed.MerchantName
	if merchant == extract.PlaceholderHeader {
		merchant = ""
	}

	name := fmt.Sprintf("Receipt - %s", today.Format(isoDate))
	if merchant != "" {
		datePart := parsed.Date
		if datePart == "" {
			datePart = "Receipt"
		}
		name = fmt.Sprintf("%s - %s", merchant, datePart)
	}

	var lines []string
	if merchant != "" {
		lines = append(lines, fmt.Sprintf("Merchant: %s", merchant))
	} else {
		lines = append(lines, "Receipt expense")
	}
	if parsed.Date != "" {
		lines = append(lines, fmt.Sprintf("Date: %s", parsed.Date))
	}
	if parsed.TaxAmount > 0 {
		lines = append(lines, fmt.Sprintf("Tax: $%s", money.FormatCents(parsed.TaxAmount)))
	}
	if parsed.Subtotal > 0 && !money.WithinOneCent(parsed.Subtotal, parsed.TotalAmount) {
		lines = append(lines, fmt.Sprintf("Subtotal: $%s", money.FormatCents(parsed.Subtotal)))
	}
	for i, item := range parsed.Items {
		if i == maxDescriptionItems {
			lines = append(lines, fmt.Sprintf("+%d more", len(parsed.Items)-maxDescriptionItems))
			break
		}
		lines = append(lines, fmt.Sprintf("• %s: $%s", item.Description, money.FormatCents(item.Amount)))
	}

	amount := parsed.TotalAmount
	if amount <= 0 {
		amount = 0
	}

	paymentDate := parsed.PaymentDate
	if paymentDate == "" {
		paymentDate = today.Format(isoDate)
	}

	if tags == nil {
		tags = []string{}
	}

	return &SuggestedExpense{
		Name:        name,
		Description: strings.Join(lines, "\n"),
		Amount:      amount,
		Category:    parsed.Category,
		Tags:        tags,
		PaymentDate: paymentDate,
		ReceiptKey:  ref.Key,
		ReceiptURL:  ref.URL,
	}
}
