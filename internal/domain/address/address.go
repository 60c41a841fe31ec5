package address

import (
	"context"
	"time"
)

// Address is a saved shipping address belonging to a user account.
type Address struct {
	ID         string
	UserID     string
	FullName   string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	CreatedAt  time.Time
}

// Repository defines persistence operations for the address book.
type Repository interface {
	Create(ctx context.Context, a *Address) error
	ListByUser(ctx context.Context, userID string) ([]Address, error)
}
