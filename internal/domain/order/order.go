package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status enumerates the order lifecycle states. An order becomes PAID only
// after a verified payment confirmation; fulfillment states follow by
// administrative action.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// LineItem is a value snapshot of a product at purchase time. It is
// deliberately decoupled from the live product row so later catalog edits
// never retroactively alter historical orders.
type LineItem struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
}

// Order is a durable customer order. Total is in the smallest currency unit.
// Once Status reaches PAID, Items and Total are immutable; only Status and
// TrackingURL may change afterwards.
type Order struct {
	ID               string
	GatewayOrderID   string
	GatewayPaymentID string
	Total            int64
	Items            []LineItem
	Status           Status
	CustomerName     string
	CustomerEmail    string
	CustomerAddress  string
	TrackingURL      string
	CreatedAt        time.Time
}

// FulfillmentUpdate carries the mutable post-payment fields.
type FulfillmentUpdate struct {
	Status      Status
	TrackingURL string
}

// Repository defines persistence operations for orders.
type Repository interface {
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
	UpdateFulfillment(ctx context.Context, id string, upd FulfillmentUpdate) (*Order, error)
}
