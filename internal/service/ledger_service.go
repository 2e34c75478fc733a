package service

import (
	"context"
	"fmt"
	"time"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultOperationTimeout bounds a ledger operation when none is configured.
const DefaultOperationTimeout = 5 * time.Second

// LedgerServiceImpl implements ports.LedgerService. It is the only writer of
// balances; every write pairs a balance change with exactly one Movement in
// the same transaction.
type LedgerServiceImpl struct {
	accounts   ports.AccountRepository
	movements  ports.MovementRepository
	transactor ports.DBTransactor
	timeout    time.Duration
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	accounts ports.AccountRepository,
	movements ports.MovementRepository,
	transactor ports.DBTransactor,
	timeout time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return &LedgerServiceImpl{
		accounts:   accounts,
		movements:  movements,
		transactor: transactor,
		timeout:    timeout,
		log:        log,
	}
}

// Topup credits amount to the account named by handle from outside the ledger.
func (s *LedgerServiceImpl) Topup(ctx context.Context, handle string, amount decimal.Decimal) (*domain.Movement, error) {
	amount, err := normalizeAmount(amount)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dest, err := lookupAccount(ctx, s.accounts, ports.ByHandle(handle))
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storeFault(ctx, "begin tx", err)
	}
	defer rollback(ctx, dbTx, s.log)

	if err := s.accounts.AddBalance(ctx, dbTx, dest.ID, amount); err != nil {
		return nil, storeFault(ctx, "credit account", err)
	}

	mv := &domain.Movement{Amount: amount, ToID: dest.ID}
	if err := s.movements.Create(ctx, dbTx, mv); err != nil {
		return nil, storeFault(ctx, "record movement", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storeFault(ctx, "commit tx", err)
	}

	s.log.Info().
		Int64("movement_id", mv.ID).
		Int64("to_id", dest.ID).
		Str("amount", domain.FormatAmount(amount)).
		Msg("topup committed")

	return mv, nil
}

// Transfer moves amount from req.Actor to the account named by req.To.
//
// The actor's balance snapshot is checked first so obviously short transfers
// fail without taking locks. The check is repeated on the locked row, and only
// that second check decides the outcome.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Movement, error) {
	if req.Actor == nil {
		return nil, apperror.ErrUnauthenticated()
	}

	amount, err := normalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dest, err := lookupAccount(ctx, s.accounts, req.To)
	if err != nil {
		return nil, err
	}

	if !req.Actor.CanCover(amount) {
		s.log.Debug().
			Int64("from_id", req.Actor.ID).
			Str("amount", domain.FormatAmount(amount)).
			Msg("transfer rejected on balance snapshot")
		return nil, apperror.ErrInsufficientFunds()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storeFault(ctx, "begin tx", err)
	}
	defer rollback(ctx, dbTx, s.log)

	source, err := s.lockPair(ctx, dbTx, req.Actor.ID, dest.ID)
	if err != nil {
		return nil, err
	}

	if !source.CanCover(amount) {
		s.log.Debug().
			Int64("from_id", source.ID).
			Str("balance", domain.FormatAmount(source.Balance)).
			Str("amount", domain.FormatAmount(amount)).
			Msg("transfer lost race for funds")
		return nil, apperror.ErrInsufficientFunds()
	}

	if err := s.accounts.AddBalance(ctx, dbTx, source.ID, amount.Neg()); err != nil {
		return nil, storeFault(ctx, "debit source", err)
	}
	if err := s.accounts.AddBalance(ctx, dbTx, dest.ID, amount); err != nil {
		return nil, storeFault(ctx, "credit destination", err)
	}

	fromID := source.ID
	mv := &domain.Movement{Amount: amount, FromID: &fromID, ToID: dest.ID}
	if err := s.movements.Create(ctx, dbTx, mv); err != nil {
		return nil, storeFault(ctx, "record movement", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storeFault(ctx, "commit tx", err)
	}

	s.log.Info().
		Int64("movement_id", mv.ID).
		Int64("from_id", source.ID).
		Int64("to_id", dest.ID).
		Str("amount", domain.FormatAmount(amount)).
		Msg("transfer committed")

	return mv, nil
}

// lockPair locks the source and destination rows in ascending id order so
// two opposite transfers cannot deadlock, and returns the locked source.
func (s *LedgerServiceImpl) lockPair(ctx context.Context, tx pgx.Tx, sourceID, destID int64) (*domain.Account, error) {
	ids := []int64{sourceID}
	if destID != sourceID {
		ids = append(ids, destID)
		if destID < sourceID {
			ids[0], ids[1] = destID, sourceID
		}
	}

	var source *domain.Account
	for _, id := range ids {
		acc, err := s.accounts.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, storeFault(ctx, fmt.Sprintf("lock account %d", id), err)
		}
		if acc == nil {
			return nil, apperror.ErrNotFound("account")
		}
		if id == sourceID {
			source = acc
		}
	}
	return source, nil
}

func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount, err := domain.NormalizeAmount(amount)
	if err != nil {
		return decimal.Zero, apperror.ErrInvalidAmount(err.Error())
	}
	return amount, nil
}
