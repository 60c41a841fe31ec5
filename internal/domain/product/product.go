package product

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is stored
// in the smallest currency unit (paise) to keep monetary arithmetic exact.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Image       string
	Stock       int64
}

// Repository defines persistence operations for the product catalog.
//
// Stock is never mutated through this interface; decrements happen only
// inside the checkout commit transaction (see the checkout package) so the
// stock >= 0 invariant is enforced by the storage layer.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
}
