package ports

import (
	"context"
	"time"

	"ledger-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CredentialStore hashes and verifies account secrets.
type CredentialStore interface {
	Hash(secret string) (string, error)
	// Verify reports whether secret matches hash. Malformed hashes never match.
	Verify(secret string, hash string) bool
}

// TokenService issues and validates bearer credentials.
type TokenService interface {
	Issue(accountID int64) (string, time.Time, error)
	Validate(token string) (int64, error)
}

// AccountQuery selects an account by exactly one of ID or Handle.
type AccountQuery struct {
	ID     *int64
	Handle *string
}

// ByID builds a query for the account with the given id.
func ByID(id int64) AccountQuery {
	return AccountQuery{ID: &id}
}

// ByHandle builds a query for the account with the given handle.
func ByHandle(handle string) AccountQuery {
	return AccountQuery{Handle: &handle}
}

// AccountService owns account creation and lookup. It never changes balances.
type AccountService interface {
	Create(ctx context.Context, handle, secret string) (int64, error)
	Get(ctx context.Context, q AccountQuery) (*domain.Account, error)
	// GetVerified returns the account only if secret matches. It fails with
	// KindNotFound or KindInvalidCredentials.
	GetVerified(ctx context.Context, handle, secret string) (*domain.Account, error)
}

// Session is an issued bearer credential.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

// AuthService is the credential boundary of the ledger.
type AuthService interface {
	Register(ctx context.Context, handle, secret string) (int64, error)
	// Authenticate collapses unknown handles and wrong secrets into one
	// KindAuthFailed error.
	Authenticate(ctx context.Context, handle, secret string) (*domain.Account, error)
	Login(ctx context.Context, handle, secret string) (*Session, error)
}

// SessionGate turns a bearer credential back into the account it was issued to.
type SessionGate interface {
	Resolve(ctx context.Context, token string) (*domain.Account, error)
}

// TransferRequest holds validated input for a transfer. Actor is the
// authenticated source account as loaded when the session was resolved; its
// Balance is a snapshot, not an authority.
type TransferRequest struct {
	Actor  *domain.Account
	Amount decimal.Decimal
	To     AccountQuery
}

// LedgerService is the only component that changes balances.
type LedgerService interface {
	Topup(ctx context.Context, handle string, amount decimal.Decimal) (*domain.Movement, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.Movement, error)
}

// HistoryReader pages through an account's movements.
type HistoryReader interface {
	ListMovements(ctx context.Context, accountID int64, pageNum int) ([]domain.MovementView, error)
}
