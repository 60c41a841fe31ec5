package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for checkout validation.
var (
	// ErrEmptyCart is returned when a checkout is submitted with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrIncompleteAddress is returned when required address fields are missing.
	ErrIncompleteAddress = errors.New("incomplete shipping address")
	// ErrMissingFields is returned when a confirmation lacks required fields.
	// Raised before any I/O.
	ErrMissingFields = errors.New("missing payment data")
	// ErrInvalidSignature is returned when a confirmation fails HMAC
	// verification. No durable state changes when this is returned.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrAlreadyConfirmed is returned when a confirmation's gateway order id
	// was already consumed by a committed order.
	ErrAlreadyConfirmed = errors.New("payment already confirmed")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s", e.ProductID)
}

// ProductNotFoundError indicates a cart references an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError indicates the requested quantity exceeds current
// stock for a product.
type InsufficientStockError struct {
	ProductID string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}
