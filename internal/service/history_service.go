package service

import (
	"context"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"
)

// DefaultPageSize is the number of movements per history page.
const DefaultPageSize = 25

// maxPageNum keeps page_num * page_size well inside int range.
const maxPageNum = 1 << 20

// HistoryServiceImpl implements ports.HistoryReader. Reads run on the pool
// outside any transaction and only ever see committed movements.
type HistoryServiceImpl struct {
	movements ports.MovementRepository
	pageSize  int
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(movements ports.MovementRepository, pageSize int) *HistoryServiceImpl {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &HistoryServiceImpl{movements: movements, pageSize: pageSize}
}

// ListMovements returns page pageNum (zero-based) of the movements touching
// accountID, newest first. A page past the end is empty, not an error.
func (s *HistoryServiceImpl) ListMovements(ctx context.Context, accountID int64, pageNum int) ([]domain.MovementView, error) {
	if pageNum < 0 || pageNum > maxPageNum {
		return nil, apperror.ErrInvalidQuery("page_num out of range")
	}

	views, err := s.movements.ListByAccount(ctx, accountID, s.pageSize, pageNum*s.pageSize)
	if err != nil {
		return nil, storeFault(ctx, "list movements", err)
	}
	if views == nil {
		views = []domain.MovementView{}
	}
	return views, nil
}
