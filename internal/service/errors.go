package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const rollbackTimeout = 2 * time.Second

// storeFault translates an adapter error into the ledger's error kinds.
// AppErrors pass through unchanged.
func storeFault(ctx context.Context, op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrBalanceConstraint):
		return apperror.ErrInsufficientFunds()
	case errors.Is(err, domain.ErrBalanceOverflow):
		return apperror.ErrInvalidAmount("resulting balance out of range")
	case errors.Is(err, domain.ErrHandleTaken):
		return apperror.ErrHandleTaken()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return apperror.ErrTimeout(fmt.Errorf("%s: %w", op, err))
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// rollback releases tx on a context that outlives the caller's, so an
// expired budget cannot leave row locks held. It is a no-op after Commit.
func rollback(ctx context.Context, tx pgx.Tx, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Warn().Err(err).Msg("transaction rollback failed")
	}
}

// lookupAccount resolves q against repo. Exactly one of q.ID and q.Handle
// must be set.
func lookupAccount(ctx context.Context, repo ports.AccountRepository, q ports.AccountQuery) (*domain.Account, error) {
	var (
		acc *domain.Account
		err error
	)

	switch {
	case q.ID != nil && q.Handle == nil:
		acc, err = repo.GetByID(ctx, *q.ID)
	case q.Handle != nil && q.ID == nil:
		acc, err = repo.GetByHandle(ctx, *q.Handle)
	default:
		return nil, apperror.ErrInvalidQuery("exactly one of id or handle is required")
	}
	if err != nil {
		return nil, storeFault(ctx, "lookup account", err)
	}
	if acc == nil {
		return nil, apperror.ErrNotFound("account")
	}
	return acc, nil
}
