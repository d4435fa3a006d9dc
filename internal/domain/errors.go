package domain

import (
	"errors"
	"fmt"
)

// Error codes reported to clients.
const (
	CodeInvalidRequest      = 400
	CodeUnauthorized        = 401
	CodeNotFound            = 404
	CodeConflict            = 409
	CodeInternal            = 500
	CodeInvalidAmount       = 1001
	CodeInvalidHandle       = 1002
	CodeInsufficientBalance = 1003
	CodeInvalidReferral     = 1004
	CodeStoreError          = 1005
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAuth is returned when credentials are invalid or the identity provider is unreachable.
	ErrAuth = errors.New("authentication failed")
	// ErrConflict is returned when an optimistic write lost every attempt.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrAlreadyApplied is returned when a patch with the same ID was already written.
	ErrAlreadyApplied = errors.New("patch already applied")
)

// Reason identifies why a request was rejected.
type Reason string

const (
	ReasonInvalidAmount       Reason = "invalid_amount"
	ReasonInvalidHandle       Reason = "invalid_handle"
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonInvalidReferral     Reason = "invalid_referral"
	ReasonInvalidCredentials  Reason = "invalid_credentials"
)

// ValidationError is a user input outside policy. It is never fatal.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Code returns the client-facing error code.
func (e *ValidationError) Code() int {
	switch e.Reason {
	case ReasonInvalidAmount:
		return CodeInvalidAmount
	case ReasonInvalidHandle:
		return CodeInvalidHandle
	case ReasonInvalidReferral:
		return CodeInvalidReferral
	}
	return CodeInvalidRequest
}

// InsufficientBalanceError reports the exact shortfall of a withdrawal.
type InsufficientBalanceError struct {
	Required int64
	Balance  int64
}

// Deficit is the XD still missing.
func (e *InsufficientBalanceError) Deficit() int64 {
	return e.Required - e.Balance
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("You do not have enough XD to withdraw this amount. You need %d XD (short by %d XD).", e.Required, e.Deficit())
}

// Code returns the client-facing error code.
func (e *InsufficientBalanceError) Code() int {
	return CodeInsufficientBalance
}

// StoreError wraps a persistence failure. The in-memory effect of the
// operation is kept; the error is surfaced for logging.
type StoreError struct {
	Op     string
	UserID string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.UserID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Code returns the client-facing error code.
func (e *StoreError) Code() int {
	return CodeStoreError
}

// IsStoreError reports whether err is a persistence failure rather than a
// rejection of the change itself.
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

// CodeOf maps an error to its client-facing code.
func CodeOf(err error) int {
	var coded interface{ Code() int }
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAuth):
		return CodeUnauthorized
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.As(err, &coded):
		return coded.Code()
	}
	return CodeInternal
}
