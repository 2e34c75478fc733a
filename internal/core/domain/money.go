package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits a balance carries.
const AmountScale = 2

// MaxAmount is the largest value a NUMERIC(10,2) column holds.
var MaxAmount = decimal.RequireFromString("99999999.99")

var (
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountPrecision   = errors.New("amount must have at most 2 decimal places")
	ErrAmountTooLarge    = errors.New("amount exceeds 99999999.99")
)

// ValidateAmount checks that amount can be moved by the ledger. Trailing
// zeros are not significant: 1.500 is accepted as 1.50.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrAmountPrecision
	}
	if amount.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// NormalizeAmount validates amount and returns it at the ledger's scale.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount.Truncate(AmountScale), nil
}

// ParseAmount parses a decimal string and validates it.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return NormalizeAmount(d)
}

// FormatAmount renders amount with exactly two fractional digits.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountScale)
}
