package service

import (
	"context"
	"errors"
	"testing"

	"ledger-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTx implements pgx.Tx for testing
type mockTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (m *mockTx) Rollback(_ context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return nil
}

func (m *mockTx) Commit(_ context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal.Decimal argument by value.
type decEq struct{ want decimal.Decimal }

func (m decEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decEq) String() string { return "is decimal " + m.want.String() }

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
