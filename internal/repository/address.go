package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uncoverstore/api/internal/domain/address"
)

const (
	createAddressSQL = `INSERT INTO addresses
		(id, user_id, full_name, street, city, state, postal_code, country, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	listAddressesByUserSQL = `SELECT id, user_id, full_name, street, city, state,
			postal_code, country, phone, created_at
		FROM addresses WHERE user_id = $1 ORDER BY created_at DESC`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create inserts a new address for a user.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	err := r.pool.QueryRow(ctx, createAddressSQL,
		a.ID, a.UserID, a.FullName, a.Street, a.City, a.State,
		a.PostalCode, a.Country, a.Phone,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating address %q: %w", a.ID, err)
	}
	return nil
}

// ListByUser returns a user's saved addresses, newest first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var a address.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Street, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Phone, &a.CreatedAt,
	)
	return a, err
}
