package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		cents int64
	}{
		{"plain decimal", "9.79", 979},
		{"dollar sign", "$90.11", 9011},
		{"thousands separator", "$1,234.56", 123456},
		{"spaces", "1 234.56", 123456},
		{"euro sign", "€12.00", 1200},
		{"integer", "45", 4500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseString(tt.raw, USD)
			require.NoError(t, err)
			assert.Equal(t, tt.cents, a.Cents())
		})
	}

	t.Run("invalid input", func(t *testing.T) {
		_, err := ParseString("not money", USD)
		assert.Error(t, err)
	})
}

func TestWithinOneCent(t *testing.T) {
	assert.True(t, WithinOneCent(9.79, 9.79))
	assert.True(t, WithinOneCent(9.79, 9.785))
	assert.True(t, WithinOneCent(9.79, 9.80))
	assert.False(t, WithinOneCent(9.79, 9.81))
	assert.False(t, WithinOneCent(83.32, 90.19))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "6.87", FormatCents(6.87))
	assert.Equal(t, "6.00", FormatCents(6))
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "1234.50", FormatCents(1234.5))
}

func TestAmountRoundTrip(t *testing.T) {
	a := NewFromFloat(90.11, USD)
	assert.Equal(t, int64(9011), a.Cents())
	assert.InDelta(t, 90.11, a.Float64(), 0.001)
	assert.True(t, a.IsPositive())

	zero := NewFromFloat(0, USD)
	assert.False(t, zero.IsPositive())
}
