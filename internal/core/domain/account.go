package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxHandleLength is the width of the handle column.
const MaxHandleLength = 32

// Account is a named holder of a single balance.
type Account struct {
	ID         int64           `json:"id"`
	Handle     string          `json:"handle"`
	SecretHash string          `json:"-"`
	Balance    decimal.Decimal `json:"balance"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CanCover reports whether the balance covers amount.
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ValidHandle reports whether h is usable as an account handle: 1..32
// characters, no surrounding whitespace, no control characters. Handles are
// case-sensitive and compared byte for byte.
func ValidHandle(h string) bool {
	if h == "" || !utf8.ValidString(h) {
		return false
	}
	if utf8.RuneCountInString(h) > MaxHandleLength {
		return false
	}
	if strings.TrimSpace(h) != h {
		return false
	}
	return strings.IndexFunc(h, unicode.IsControl) < 0
}
