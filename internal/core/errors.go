package core

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the ledger wraps exactly one of them.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStore      = errors.New("store error")
)

var (
	ErrNegativeAmount      = fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrMissingAmount       = fmt.Errorf("%w: amount is required", ErrValidation)
	ErrConflictingAmounts  = fmt.Errorf("%w: a record cannot have both income and expense values", ErrValidation)
	ErrInvalidCategoryType = fmt.Errorf("%w: category type must be Income or Expense", ErrValidation)
	ErrEmptyName           = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmptyAccountType    = fmt.Errorf("%w: account type is required", ErrValidation)
	ErrDuplicateAccount    = fmt.Errorf("%w: an account with this type already exists", ErrValidation)
	ErrCategoryInUse       = fmt.Errorf("%w: category is referenced by records", ErrValidation)
	ErrCategoryMismatch    = fmt.Errorf("%w: record type does not match the category type", ErrValidation)
	ErrBudgetCategory      = fmt.Errorf("%w: budgets must use an expense category", ErrValidation)
	ErrInvalidCurrency     = fmt.Errorf("%w: currency must be a three-letter code", ErrValidation)
	ErrMissingCredentials  = fmt.Errorf("%w: username, email and password are required", ErrValidation)
	ErrUserExists          = fmt.Errorf("%w: username or email already registered", ErrValidation)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid username or password", ErrValidation)
)

// NotFound reports a missing or foreign-owned entity.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}

// Kind names the error class for presentation.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "store"
	}
}
