package service

import (
	"context"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	repo  ports.AccountRepository
	creds ports.CredentialStore
	log   zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(repo ports.AccountRepository, creds ports.CredentialStore, log zerolog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		repo:  repo,
		creds: creds,
		log:   log,
	}
}

// Create registers a new account with a zero balance and returns its id.
func (s *AccountServiceImpl) Create(ctx context.Context, handle, secret string) (int64, error) {
	if !domain.ValidHandle(handle) {
		return 0, apperror.ErrInvalidQuery("handle must be 1-32 characters without surrounding whitespace")
	}
	if secret == "" {
		return 0, apperror.ErrInvalidQuery("secret must not be empty")
	}

	hash, err := s.creds.Hash(secret)
	if err != nil {
		return 0, apperror.InternalError(err)
	}

	id, err := s.repo.Create(ctx, handle, hash)
	if err != nil {
		err = storeFault(ctx, "create account", err)
		if apperror.Is(err, apperror.KindHandleTaken) {
			s.log.Debug().Str("handle", handle).Msg("handle already taken")
		}
		return 0, err
	}

	s.log.Info().Int64("account_id", id).Str("handle", handle).Msg("account created")
	return id, nil
}

// Get looks an account up by id or handle.
func (s *AccountServiceImpl) Get(ctx context.Context, q ports.AccountQuery) (*domain.Account, error) {
	return lookupAccount(ctx, s.repo, q)
}

// GetVerified returns the account named by handle if secret matches its
// stored hash.
func (s *AccountServiceImpl) GetVerified(ctx context.Context, handle, secret string) (*domain.Account, error) {
	acc, err := lookupAccount(ctx, s.repo, ports.ByHandle(handle))
	if err != nil {
		return nil, err
	}
	if !s.creds.Verify(secret, acc.SecretHash) {
		return nil, apperror.ErrInvalidCredentials()
	}
	return acc, nil
}
