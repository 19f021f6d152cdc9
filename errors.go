package handlepay

import (
	"errors"
)

// Sentinel errors for common failure scenarios. Every error aborts the
// entire call — and, for batches, the entire batch — with no partial
// state change.
var (
	// Input validation errors
	ErrInvalidAmount  = errors.New("handlepay: invalid amount")
	ErrInvalidAddress = errors.New("handlepay: invalid address")
	ErrInvalidHandle  = errors.New("handlepay: invalid handle")
	ErrInvalidRate    = errors.New("handlepay: fee rate above ceiling")

	// Batch shape errors
	ErrEmptyBatch     = errors.New("handlepay: empty batch")
	ErrLengthMismatch = errors.New("handlepay: batch array length mismatch")
	ErrAmountMismatch = errors.New("handlepay: declared total does not match sum of amounts")

	// Authorization errors
	ErrUnauthorized = errors.New("handlepay: unauthorized")

	// Settlement errors
	ErrNothingToWithdraw = errors.New("handlepay: nothing to withdraw")
	ErrNothingToClaim    = errors.New("handlepay: nothing to claim")
	ErrTransferFailed    = errors.New("handlepay: asset transfer failed")

	// Configuration errors
	ErrBadShares = errors.New("handlepay: stakeholder shares must sum to 10000")
	ErrNoEscrow  = errors.New("handlepay: no escrow configured for unregistered handle")
)

// IsValidationError returns true if the error is an input or batch shape
// violation the caller can fix by correcting the request.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidHandle) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrAmountMismatch)
}

// IsAuthError returns true if the error is an authorization failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsEmptyError returns true if the error reports a zero balance or fee
// pool. These are safe to treat as "already settled" by idempotent callers.
func IsEmptyError(err error) bool {
	return errors.Is(err, ErrNothingToWithdraw) ||
		errors.Is(err, ErrNothingToClaim)
}

// IsRetryable returns true if the error may clear on retry after the
// caller corrects the triggering condition (e.g. re-approving a token
// allowance or topping up funds). Nothing is retried internally.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}
