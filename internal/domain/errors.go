package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these so callers can classify
// them with errors.Is without knowing every sentinel.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")
	ErrParse      = errors.New("parse error")
)

var (
	ErrProductNotFound   = fmt.Errorf("product %w", ErrNotFound)
	ErrCartItemNotFound  = fmt.Errorf("cart item %w", ErrNotFound)
	ErrCategoryNotFound  = fmt.Errorf("category %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", ErrValidation)
)

// InsufficientStockError reports the stock that was available when a
// requested quantity was rejected.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock, available: %d", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock || target == ErrValidation
}

// StorageError wraps a failure of the underlying store.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
