package handler

import (
	"ledger-service/internal/adapter/http/dto"
	"ledger-service/internal/adapter/http/middleware"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"
	"ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AuthHandler handles client registration and token issuance.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// CreateClient handles POST /clients.
func (h *AuthHandler) CreateClient(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidQuery(err.Error()))
		return
	}

	id, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ClientResponse{
		ID:       id,
		Username: req.Username,
		Balance:  decimal.Zero.StringFixed(2),
	})
}

// GetClient handles GET /clients for the authenticated account.
func (h *AuthHandler) GetClient(c *gin.Context) {
	acc, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}
	response.OK(c, dto.NewClientResponse(acc))
}

// Token handles POST /auth/token. It accepts an OAuth2 password form or JSON.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, apperror.ErrInvalidQuery(err.Error()))
		return
	}

	session, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TokenResponse{
		AccessToken: session.Token,
		TokenType:   "bearer",
		ExpiresAt:   session.ExpiresAt.Unix(),
	})
}
