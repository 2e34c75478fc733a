package handler

import (
	"ledger-service/internal/adapter/http/dto"
	"ledger-service/internal/adapter/http/middleware"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"
	"ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler handles top-ups, transfers and transfer history.
type LedgerHandler struct {
	ledger  ports.LedgerService
	history ports.HistoryReader
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger ports.LedgerService, history ports.HistoryReader) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, history: history}
}

// Topup handles POST /topup.
func (h *LedgerHandler) Topup(c *gin.Context) {
	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidQuery(err.Error()))
		return
	}

	mv, err := h.ledger.Topup(c.Request.Context(), req.To, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StatusResponse{Status: true, MovementID: mv.ID})
}

// Transfer handles POST /transfers from the authenticated account.
func (h *LedgerHandler) Transfer(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidQuery(err.Error()))
		return
	}

	mv, err := h.ledger.Transfer(c.Request.Context(), ports.TransferRequest{
		Actor:  actor,
		Amount: req.Amount,
		To:     ports.ByHandle(req.To),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StatusResponse{Status: true, MovementID: mv.ID})
}

// ListTransfers handles GET /transfers?page_num=N.
func (h *LedgerHandler) ListTransfers(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	var q dto.ListTransfersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.ErrInvalidQuery("page_num must be a non-negative integer"))
		return
	}

	views, err := h.history.ListMovements(c.Request.Context(), actor.ID, q.PageNum)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewTransferResponses(views))
}
