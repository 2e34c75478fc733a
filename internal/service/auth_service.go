package service

import (
	"context"
	"fmt"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	accounts ports.AccountService
	tokens   ports.TokenService
	log      zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(accounts ports.AccountService, tokens ports.TokenService, log zerolog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		accounts: accounts,
		tokens:   tokens,
		log:      log,
	}
}

// Register creates an account and returns its id.
func (s *AuthServiceImpl) Register(ctx context.Context, handle, secret string) (int64, error) {
	return s.accounts.Create(ctx, handle, secret)
}

// Authenticate checks a handle and secret. Unknown handles and wrong secrets
// produce the same error.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, handle, secret string) (*domain.Account, error) {
	acc, err := s.accounts.GetVerified(ctx, handle, secret)
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindNotFound, apperror.KindInvalidCredentials:
			s.log.Debug().Str("handle", handle).Str("reason", string(apperror.KindOf(err))).Msg("authentication failed")
			return nil, apperror.ErrAuthFailed()
		}
		return nil, err
	}
	return acc, nil
}

// Login authenticates and issues a bearer token.
func (s *AuthServiceImpl) Login(ctx context.Context, handle, secret string) (*ports.Session, error) {
	acc, err := s.Authenticate(ctx, handle, secret)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(acc.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue token: %w", err))
	}

	s.log.Info().Int64("account_id", acc.ID).Msg("session issued")
	return &ports.Session{Token: token, ExpiresAt: expiresAt, Account: acc}, nil
}
