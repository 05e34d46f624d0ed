package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors, use with errors.Is
var (
	ErrNotFound            = errors.New("record not found")
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInconsistency       = errors.New("balance inconsistency")
	ErrStorage             = errors.New("operation failed")
)

// NotFoundError is returned when a referenced wallet, category or transaction does not exist
type NotFoundError struct {
	Kind string // wallet, category, transaction
	Ref  string // id or name as given by the caller
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Ref, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError describes malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for a *ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientBalanceError is returned when a convert source wallet cannot cover amount plus fee
type InsufficientBalanceError struct {
	WalletID   uint
	WalletName string
	Balance    decimal.Decimal
	Required   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance in wallet %s: balance %s, required %s",
		e.WalletName, e.Balance.String(), e.Required.String())
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InconsistencyError is raised when reconciliation cannot correct a wallet
type InconsistencyError struct {
	WalletID uint
	Err      error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("wallet %d: %s: %v", e.WalletID, ErrInconsistency, e.Err)
}

func (e *InconsistencyError) Unwrap() []error { return []error{ErrInconsistency, e.Err} }

// StorageError wraps a transient failure of the ledger store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// IsNotFound returns true if err marks a missing record
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if err is caused by caller input
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsRetryable returns true if the operation may succeed when attempted again
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage) && !IsClientError(err)
}
