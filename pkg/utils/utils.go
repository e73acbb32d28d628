package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateTotalPayable returns principal plus simple interest.
// Formula: amount + amount * rate / 100, where rate is a percentage.
func CalculateTotalPayable(amount, ratePercent decimal.Decimal) decimal.Decimal {
	interest := amount.Mul(ratePercent).Div(hundred)
	return amount.Add(interest)
}

// CalculateMonthlyPayment spreads the total payable evenly across the
// loan duration. Rounded to 2 decimal places for currency.
func CalculateMonthlyPayment(amount, ratePercent decimal.Decimal, months int) decimal.Decimal {
	total := CalculateTotalPayable(amount, ratePercent)
	return total.Div(decimal.NewFromInt(int64(months))).Round(2)
}

// CalculateRemaining returns the outstanding balance floored at zero.
func CalculateRemaining(totalPayable, amountPaid decimal.Decimal) decimal.Decimal {
	remaining := totalPayable.Sub(amountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// AddMonths advances a date by whole calendar months.
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// WarrantyExpiry returns the warranty end date: purchase date + 1 year.
func WarrantyExpiry(purchaseDate time.Time) time.Time {
	return purchaseDate.AddDate(1, 0, 0)
}

// MonthsElapsed returns the number of whole calendar months between two
// dates; zero when `to` is not after `from`.
func MonthsElapsed(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	months := 0
	for cursor := AddMonths(from, 1); !cursor.After(to); cursor = AddMonths(cursor, 1) {
		months++
	}
	return months
}

// FormatLoanID renders the business loan identifier: LN-{year}-{seq}.
func FormatLoanID(year, sequence int) string {
	return fmt.Sprintf("LN-%d-%03d", year, sequence)
}

// GenerateIMEI produces a random 15-digit IMEI string.
func GenerateIMEI() string {
	num, _ := rand.Int(rand.Reader, big.NewInt(900000000000000))
	return fmt.Sprintf("%d", 100000000000000+num.Int64())
}

// GenerateSerialNumber builds a serial in the {MODELPREFIX}-{year}-{random}
// convention used across the device fleet.
func GenerateSerialNumber(model string, year int) string {
	prefix := modelPrefix(model)
	num, _ := rand.Int(rand.Reader, big.NewInt(9000))
	return fmt.Sprintf("%s-%d-%04d", prefix, year, 1000+num.Int64())
}

func modelPrefix(model string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, model)
	if len(cleaned) > 3 {
		cleaned = cleaned[:3]
	}
	if cleaned == "" {
		cleaned = "DEV"
	}
	return strings.ToUpper(cleaned)
}

// IsDigits reports whether s consists solely of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
