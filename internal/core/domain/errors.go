package domain

import "errors"

// Storage-level conditions the adapters report and the services translate.
var (
	ErrHandleTaken       = errors.New("handle already taken")
	ErrBalanceConstraint = errors.New("balance would become negative")
	ErrBalanceOverflow   = errors.New("balance out of range")
)
