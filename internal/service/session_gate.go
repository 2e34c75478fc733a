package service

import (
	"context"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// SessionGateImpl implements ports.SessionGate.
type SessionGateImpl struct {
	tokens   ports.TokenService
	accounts ports.AccountService
	log      zerolog.Logger
}

// NewSessionGate creates a new SessionGateImpl.
func NewSessionGate(tokens ports.TokenService, accounts ports.AccountService, log zerolog.Logger) *SessionGateImpl {
	return &SessionGateImpl{tokens: tokens, accounts: accounts, log: log}
}

// Resolve returns the account a token was issued to. Bad tokens and tokens
// for accounts that no longer exist both fail as Unauthenticated.
func (g *SessionGateImpl) Resolve(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, apperror.ErrUnauthenticated()
	}

	id, err := g.tokens.Validate(token)
	if err != nil {
		g.log.Debug().Err(err).Msg("rejected bearer token")
		return nil, apperror.ErrUnauthenticated()
	}

	acc, err := g.accounts.Get(ctx, ports.ByID(id))
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			g.log.Debug().Int64("account_id", id).Msg("token for unknown account")
			return nil, apperror.ErrUnauthenticated()
		}
		return nil, err
	}
	return acc, nil
}
