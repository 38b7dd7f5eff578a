package domain

import "errors"

// Sentinels for errors.Is checks. The concrete error values below carry the
// machine-readable fields; their Error strings are deliberately static so no
// caller-derived value ever ends up inside a message. Composing display text
// is the transport layer's problem.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrVersionConflict     = errors.New("optimistic lock conflict")
)

type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string { return "invalid argument" }

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

type NotFoundError struct {
	AccountID int64
}

func (e *NotFoundError) Error() string { return "account not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientBalanceError reports a withdrawal that exceeds the current
// balance. Amounts are in minor units.
type InsufficientBalanceError struct {
	AccountID       int64
	CurrentBalance  int64
	RequestedAmount int64
}

func (e *InsufficientBalanceError) Error() string { return "insufficient balance" }

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }
