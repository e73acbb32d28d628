package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateTotalPayable(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		rate     string
		expected string
	}{
		{"five percent", 150000, "5", "157500"},
		{"zero rate", 150000, "0", "150000"},
		{"fractional rate", 100000, "2.5", "102500"},
		{"small principal", 95000, "5", "99750"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, _ := decimal.NewFromString(tt.rate)
			expected, _ := decimal.NewFromString(tt.expected)
			total := CalculateTotalPayable(decimal.NewFromInt(tt.amount), rate)
			assert.True(t, total.Equal(expected), "got %s, want %s", total, expected)
		})
	}
}

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		rate     string
		months   int
		expected string
	}{
		{"even division", 150000, "5", 6, "26250"},
		{"rounded to kobo", 100000, "5", 9, "11666.67"},
		{"single month", 50000, "5", 1, "52500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, _ := decimal.NewFromString(tt.rate)
			expected, _ := decimal.NewFromString(tt.expected)
			monthly := CalculateMonthlyPayment(decimal.NewFromInt(tt.amount), rate, tt.months)
			assert.True(t, monthly.Equal(expected), "got %s, want %s", monthly, expected)
		})
	}
}

func TestCalculateRemaining(t *testing.T) {
	total := decimal.NewFromInt(157500)

	assert.True(t, CalculateRemaining(total, decimal.NewFromInt(57500)).Equal(decimal.NewFromInt(100000)))
	assert.True(t, CalculateRemaining(total, total).IsZero())
	// Overpayment floors at zero rather than going negative.
	assert.True(t, CalculateRemaining(total, decimal.NewFromInt(200000)).IsZero())
}

func TestMonthsElapsed(t *testing.T) {
	base := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		to       time.Time
		expected int
	}{
		{"same day", base, 0},
		{"before from", base.AddDate(0, 0, -10), 0},
		{"under a month", base.AddDate(0, 0, 20), 0},
		{"exactly one month", base.AddDate(0, 1, 0), 1},
		{"one month and change", base.AddDate(0, 1, 10), 1},
		{"five months", base.AddDate(0, 5, 0), 5},
		{"crosses year end", base.AddDate(0, 11, 3), 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MonthsElapsed(base, tt.to))
		})
	}
}

func TestAddMonthsAndWarranty(t *testing.T) {
	purchase := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), AddMonths(purchase, 1))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), AddMonths(purchase, 6))
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), WarrantyExpiry(purchase))
}

func TestFormatLoanID(t *testing.T) {
	assert.Equal(t, "LN-2025-001", FormatLoanID(2025, 1))
	assert.Equal(t, "LN-2025-042", FormatLoanID(2025, 42))
	assert.Equal(t, "LN-2024-1000", FormatLoanID(2024, 1000))
}

func TestGenerateIMEI(t *testing.T) {
	for i := 0; i < 20; i++ {
		imei := GenerateIMEI()
		assert.Len(t, imei, 15)
		assert.True(t, IsDigits(imei))
	}
}

func TestGenerateSerialNumber(t *testing.T) {
	serial := GenerateSerialNumber("Samsung Galaxy A55", 2025)
	parts := strings.Split(serial, "-")
	assert.Len(t, parts, 3)
	assert.Equal(t, "SAM", parts[0])
	assert.Equal(t, "2025", parts[1])
	assert.Len(t, parts[2], 4)

	assert.True(t, strings.HasPrefix(GenerateSerialNumber("", 2025), "DEV-2025-"))
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("359843928411123"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("35984392841112a"))
	assert.False(t, IsDigits("359-843"))
}
