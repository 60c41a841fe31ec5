package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uncoverstore/api/internal/domain/checkout"
	"github.com/uncoverstore/api/internal/domain/order"
)

const (
	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	insertOrderSQL = `INSERT INTO orders
		(id, gateway_order_id, gateway_payment_id, total, items, status,
		 customer_name, customer_email, customer_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	listOrdersByEmailSQL = `SELECT id, gateway_order_id, gateway_payment_id, total, items, status,
			customer_name, customer_email, customer_address, tracking_url, created_at
		FROM orders WHERE customer_email = $1 ORDER BY created_at DESC`

	listAllOrdersSQL = `SELECT id, gateway_order_id, gateway_payment_id, total, items, status,
			customer_name, customer_email, customer_address, tracking_url, created_at
		FROM orders ORDER BY created_at DESC`

	getOrderByGatewayIDSQL = `SELECT id, gateway_order_id, gateway_payment_id, total, items, status,
			customer_name, customer_email, customer_address, tracking_url, created_at
		FROM orders WHERE gateway_order_id = $1`

	updateFulfillmentSQL = `UPDATE orders SET status = $2, tracking_url = COALESCE(NULLIF($3, ''), tracking_url)
		WHERE id = $1
		RETURNING id, gateway_order_id, gateway_payment_id, total, items, status,
			customer_name, customer_email, customer_address, tracking_url, created_at`

	pgUniqueViolation = "23505"
)

var (
	_ order.Repository   = (*OrderRepository)(nil)
	_ checkout.Committer = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository and checkout.Committer backed
// by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CommitOrder decrements stock for every line item and inserts the order in
// a single transaction. Each decrement is conditional (stock >= quantity);
// the first line that cannot be satisfied rolls the whole transaction back,
// so a failed checkout never leaves a partial decrement behind. Duplicate
// gateway order ids are rejected by the partial unique index on orders.
func (r *OrderRepository) CommitOrder(ctx context.Context, o *order.Order) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, line := range o.Items {
		tag, execErr := tx.Exec(ctx, decrementStockSQL, line.ProductID, line.Quantity)
		if execErr != nil {
			return fmt.Errorf("decrementing stock for %q: %w", line.ProductID, execErr)
		}
		if tag.RowsAffected() == 0 {
			return &checkout.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
			}
		}
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.ID, nullable(o.GatewayOrderID), o.GatewayPaymentID, o.Total, itemsJSON,
		string(o.Status), o.CustomerName, o.CustomerEmail, o.CustomerAddress,
	).Scan(&o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return checkout.ErrAlreadyConfirmed
		}
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}
	return nil
}

// ListByEmail returns orders for the given customer email, newest first.
// An empty email returns all orders.
func (r *OrderRepository) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if email == "" {
		rows, err = r.pool.Query(ctx, listAllOrdersSQL)
	} else {
		rows, err = r.pool.Query(ctx, listOrdersByEmailSQL, email)
	}
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetByGatewayOrderID returns the order committed for the given gateway
// order id, or order.ErrNotFound.
func (r *OrderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByGatewayIDSQL, gatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("getting order by gateway id %q: %w", gatewayOrderID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order by gateway id %q: %w", gatewayOrderID, err)
	}
	return &o, nil
}

// UpdateFulfillment sets the fulfillment fields (status, tracking URL) on an
// order. Total and items are never touched here; they are immutable once paid.
func (r *OrderRepository) UpdateFulfillment(ctx context.Context, id string, upd order.FulfillmentUpdate) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, updateFulfillmentSQL, id, string(upd.Status), upd.TrackingURL)
	if err != nil {
		return nil, fmt.Errorf("updating order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("updating order %q: %w", id, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		gatewayID   *string
		trackingURL *string
		itemsJSON   []byte
		status      string
	)
	err := row.Scan(
		&o.ID, &gatewayID, &o.GatewayPaymentID, &o.Total, &itemsJSON, &status,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerAddress, &trackingURL, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	if gatewayID != nil {
		o.GatewayOrderID = *gatewayID
	}
	if trackingURL != nil {
		o.TrackingURL = *trackingURL
	}
	o.Status = order.Status(status)

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	return o, nil
}

// nullable maps an empty string to NULL for nullable text columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
