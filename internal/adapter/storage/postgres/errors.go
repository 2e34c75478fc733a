package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation    = "23505"
	codeCheckViolation     = "23514"
	codeNumericOutOfRange  = "22003"
	constraintHandleUnique = "accounts_handle_key"
	constraintBalanceCheck = "accounts_balance_non_negative"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isViolation(err error, code, constraint string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == code && pgErr.ConstraintName == constraint
}

func hasCode(err error, code string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == code
}
