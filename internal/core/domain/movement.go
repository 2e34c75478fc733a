package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is an immutable record of one change to balances. FromID is nil
// for top-ups, which credit an account from outside the ledger.
type Movement struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	FromID    *int64          `json:"from_id,omitempty"`
	ToID      int64           `json:"to_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsTopup returns true if the movement has no source account.
func (m *Movement) IsTopup() bool {
	return m.FromID == nil
}

// Touches reports whether accountID is either end of the movement.
func (m *Movement) Touches(accountID int64) bool {
	return m.ToID == accountID || (m.FromID != nil && *m.FromID == accountID)
}

// MovementView is a Movement with both ends resolved to handles, as shown in
// an account's history.
type MovementView struct {
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	FromHandle *string         `json:"from_handle"`
	ToHandle   string          `json:"to_handle"`
	CreatedAt  time.Time       `json:"created_at"`
}

// IsTopup returns true if the movement has no source account.
func (v *MovementView) IsTopup() bool {
	return v.FromHandle == nil
}
