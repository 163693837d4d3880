// Package testutil generates receipt text fixtures for tests. Nothing in
// here is imported by production code.
package testutil

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// FixtureItem is one purchased line on a generated receipt.
type FixtureItem struct {
	Description string
	Amount      float64
}

// Fixture is a generated receipt with both the ground-truth fields and the
// rendered text lines, so tests can assert the parser recovers the truth.
type Fixture struct {
	Merchant string
	Date     time.Time
	Items    []FixtureItem
	Subtotal float64
	Tax      float64
	Total    float64
	Lines    []string
}

// NewReceipt builds a seeded receipt fixture. The same seed always yields the
// same receipt.
func NewReceipt(seed int64) *Fixture {
	faker := gofakeit.New(seed)

	fixture := &Fixture{
		Merchant: merchantName(faker),
		Date:     faker.DateRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)),
	}

	itemCount := faker.Number(2, 4)
	for i := 0; i < itemCount; i++ {
		fixture.Items = append(fixture.Items, FixtureItem{
			Description: faker.ProductName(),
			Amount:      roundCents(faker.Price(1, 50)),
		})
		fixture.Subtotal = roundCents(fixture.Subtotal + fixture.Items[i].Amount)
	}

	fixture.Tax = roundCents(fixture.Subtotal * 0.0825)
	fixture.Total = roundCents(fixture.Subtotal + fixture.Tax)

	fixture.Lines = append(fixture.Lines,
		fixture.Merchant,
		faker.Street(),
		fixture.Date.Format("01/02/2006"),
	)
	for _, item := range fixture.Items {
		fixture.Lines = append(fixture.Lines, fmt.Sprintf("%s $%.2f", item.Description, item.Amount))
	}
	fixture.Lines = append(fixture.Lines,
		fmt.Sprintf("Subtotal $%.2f", fixture.Subtotal),
		fmt.Sprintf("Tax $%.2f", fixture.Tax),
		fmt.Sprintf("Total: $%.2f", fixture.Total),
	)

	return fixture
}

// Text renders the fixture as one OCR-style text blob.
func (f *Fixture) Text() string {
	return strings.Join(f.Lines, "\n")
}

// merchantName produces an uppercase header-style merchant line without
// digits or punctuation, the shape real receipts print at the top.
func merchantName(faker *gofakeit.Faker) string {
	raw := strings.ToUpper(faker.Company())

	var b strings.Builder
	for _, r := range raw {
		if (r >= 'A' && r <= 'Z') || r == ' ' || r == '&' || r == '-' {
			b.WriteRune(r)
		}
	}

	name := strings.Join(strings.Fields(b.String()), " ")
	if len(name) < 4 {
		return "ACME MART"
	}
	if len(name) > 30 {
		name = strings.TrimSpace(name[:30])
	}
	return name
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
