package dto

import (
	"time"

	"ledger-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateClientRequest is the request body for POST /clients.
type CreateClientRequest struct {
	Username string `json:"username" form:"username" binding:"required,handle"`
	Password string `json:"password" form:"password" binding:"required,max=256"`
}

// TokenRequest is the body for POST /auth/token. It binds from an
// OAuth2 password form or from JSON.
type TokenRequest struct {
	Username  string `json:"username" form:"username" binding:"required"`
	Password  string `json:"password" form:"password" binding:"required"`
	GrantType string `json:"grant_type,omitempty" form:"grant_type" binding:"omitempty,eq=password"`
}

// TokenResponse mirrors the OAuth2 bearer token response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"` // Unix timestamp
}

// TopupRequest is the request body for POST /topup. Amount accepts a JSON
// number or string; its range and precision are checked by the ledger.
type TopupRequest struct {
	To     string          `json:"to" binding:"required,handle"`
	Amount decimal.Decimal `json:"amount"`
}

// TransferRequest is the request body for POST /transfers.
type TransferRequest struct {
	To     string          `json:"to" binding:"required,handle"`
	Amount decimal.Decimal `json:"amount"`
}

// ListTransfersQuery binds GET /transfers query parameters.
type ListTransfersQuery struct {
	PageNum int `form:"page_num" binding:"min=0"`
}

// StatusResponse acknowledges a ledger write.
type StatusResponse struct {
	Status     bool  `json:"status"`
	MovementID int64 `json:"movement_id,omitempty"`
}

// ClientResponse is the public view of an account.
type ClientResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Balance  string `json:"balance"`
}

// TransferResponse is one row of the movement history.
type TransferResponse struct {
	Amount       string  `json:"amount"`
	CreatedAt    string  `json:"created_at"`
	FromUsername *string `json:"from_username"`
	ToUsername   string  `json:"to_username"`
}

// NewClientResponse renders acc without its credential hash.
func NewClientResponse(acc *domain.Account) ClientResponse {
	return ClientResponse{
		ID:       acc.ID,
		Username: acc.Handle,
		Balance:  domain.FormatAmount(acc.Balance),
	}
}

// NewTransferResponses renders a history page. A nil from_username marks a
// top-up.
func NewTransferResponses(views []domain.MovementView) []TransferResponse {
	out := make([]TransferResponse, 0, len(views))
	for _, v := range views {
		out = append(out, TransferResponse{
			Amount:       domain.FormatAmount(v.Amount),
			CreatedAt:    v.CreatedAt.UTC().Format(time.RFC3339Nano),
			FromUsername: v.FromHandle,
			ToUsername:   v.ToHandle,
		})
	}
	return out
}
