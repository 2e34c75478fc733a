package postgres

import (
	"context"
	"errors"
	"fmt"

	"ledger-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, handle, secret_hash, balance, created_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account and returns its id. Uniqueness is left to the
// handle index so concurrent registrations cannot both succeed.
func (r *AccountRepo) Create(ctx context.Context, handle, secretHash string) (int64, error) {
	query := `INSERT INTO accounts (handle, secret_hash) VALUES ($1, $2) RETURNING id`

	var id int64
	if err := r.pool.QueryRow(ctx, query, handle, secretHash).Scan(&id); err != nil {
		if isViolation(err, codeUniqueViolation, constraintHandleUnique) {
			return 0, fmt.Errorf("insert account %q: %w", handle, domain.ErrHandleTaken)
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

// GetByID fetches an account by id (without locking).
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

// GetByHandle fetches an account by its exact handle (without locking).
func (r *AccountRepo) GetByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE handle = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, handle))
	if err != nil {
		return nil, fmt.Errorf("get account by handle: %w", err)
	}
	return a, nil
}

// GetByIDForUpdate fetches an account and locks its row until tx ends.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	a, err := scanAccount(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get account for update: %w", err)
	}
	return a, nil
}

// AddBalance adds delta to the stored balance within a transaction.
func (r *AccountRepo) AddBalance(ctx context.Context, tx pgx.Tx, id int64, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1 WHERE id = $2`

	tag, err := tx.Exec(ctx, query, delta, id)
	if err != nil {
		switch {
		case isViolation(err, codeCheckViolation, constraintBalanceCheck):
			return fmt.Errorf("update account %d balance: %w", id, domain.ErrBalanceConstraint)
		case hasCode(err, codeNumericOutOfRange):
			return fmt.Errorf("update account %d balance: %w", id, domain.ErrBalanceOverflow)
		}
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %d", id)
	}
	return nil
}

// scanAccount returns (nil, nil) when the row does not exist.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.ID, &a.Handle, &a.SecretHash, &a.Balance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}
