package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnavailable        = errors.New("product not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrNoActiveSub        = errors.New("no active subscription")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrProviderFailure    = errors.New("payment provider call failed")
	ErrProviderTimeout    = errors.New("payment provider call timed out")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context for query")
	ErrLockUnavailable    = errors.New("could not acquire lock")
)
