package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive and below 1e18 with at most two fractional digits")
	ErrInvalidAccount      = errors.New("account name and phone are required")
	ErrSameAccount         = errors.New("transfer source and destination must differ")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrIdempotencyConflict = errors.New("idempotency key already used for a different transfer")
	ErrStorageFailure      = errors.New("storage failure")
)

var domainErrors = []error{
	ErrInvalidAmount,
	ErrInvalidAccount,
	ErrSameAccount,
	ErrAccountNotFound,
	ErrInsufficientFunds,
	ErrIdempotencyConflict,
	ErrStorageFailure,
}

// IsRetryable reports whether the caller may repeat the operation unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}

// storageFailure passes domain errors through and marks everything else, including context
// cancellation, as ErrStorageFailure while keeping the cause reachable with errors.Is.
func storageFailure(err error) error {
	if err == nil {
		return nil
	}

	for _, derr := range domainErrors {
		if errors.Is(err, derr) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}
