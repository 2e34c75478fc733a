package ports

import (
	"context"

	"ledger-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for accounts.
// Lookups return (nil, nil) when no row matches. Methods accepting pgx.Tx run
// inside a ledger transaction and hold row locks until it ends.
type AccountRepository interface {
	// Create inserts an account with a zero balance. A duplicate handle
	// yields an error wrapping domain.ErrHandleTaken.
	Create(ctx context.Context, handle, secretHash string) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByHandle(ctx context.Context, handle string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error)
	// AddBalance applies delta to the stored balance. Driving the balance
	// below zero yields domain.ErrBalanceConstraint; leaving the column's
	// range yields domain.ErrBalanceOverflow.
	AddBalance(ctx context.Context, tx pgx.Tx, id int64, delta decimal.Decimal) error
}

// MovementRepository defines persistence operations for movements.
type MovementRepository interface {
	// Create inserts m and fills in its ID and CreatedAt.
	Create(ctx context.Context, tx pgx.Tx, mv *domain.Movement) error
	// ListByAccount returns movements touching accountID, newest first.
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.MovementView, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
