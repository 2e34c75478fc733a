package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories the ledger reports.
type Kind string

const (
	KindInvalidAmount      Kind = "invalid_amount"
	KindInsufficientFunds  Kind = "insufficient_funds"
	KindNotFound           Kind = "not_found"
	KindHandleTaken        Kind = "handle_taken"
	KindInvalidQuery       Kind = "invalid_query"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindAuthFailed         Kind = "auth_failed"
	KindUnauthenticated    Kind = "unauthenticated"
	KindRateLimited        Kind = "rate_limited"
	KindInternal           Kind = "internal"
	KindTimeout            Kind = "timeout"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // never exposed to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(kind Kind, code string, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, httpStatus int, err error) *AppError {
	e := New(kind, code, message, httpStatus)
	e.Err = err
	return e
}

// KindOf reports the kind carried by err. Errors that are not AppErrors are
// store or programming faults and report KindInternal; nil reports "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ---- Ledger (LED) ----

func ErrInvalidAmount(reason string) *AppError {
	msg := "Invalid amount"
	if reason != "" {
		msg = fmt.Sprintf("Invalid amount: %s", reason)
	}
	return New(KindInvalidAmount, "LED_001", msg, http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New(KindInsufficientFunds, "LED_002", "Insufficient funds", http.StatusPaymentRequired)
}

func ErrNotFound(entity string) *AppError {
	return New(KindNotFound, "LED_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Accounts (ACC) ----

func ErrHandleTaken() *AppError {
	return New(KindHandleTaken, "ACC_001", "Handle is already taken", http.StatusConflict)
}

func ErrInvalidQuery(message string) *AppError {
	return New(KindInvalidQuery, "ACC_002", message, http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

// ErrInvalidCredentials is internal to the account layer. The boundary
// reports ErrAuthFailed instead so callers cannot probe which handles exist.
func ErrInvalidCredentials() *AppError {
	return New(KindInvalidCredentials, "AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrAuthFailed() *AppError {
	return New(KindAuthFailed, "AUTH_002", "Incorrect handle or secret", http.StatusUnauthorized)
}

func ErrUnauthenticated() *AppError {
	return New(KindUnauthenticated, "AUTH_003", "Could not validate credentials", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(KindRateLimited, "RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System (SYS) ----

// InternalError wraps a store or infrastructure fault.
func InternalError(err error) *AppError {
	return Wrap(KindInternal, "SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrTimeout(err error) *AppError {
	return Wrap(KindTimeout, "SYS_002", "Operation timed out", http.StatusServiceUnavailable, err)
}
