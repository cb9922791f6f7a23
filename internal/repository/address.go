package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/storefront/internal/domain/address"
)

const getAddressByIDSQL = `SELECT username, phone, address, city, region, district, landmark, ship_to
	FROM addresses WHERE user_id = $1 AND id = $2`

var _ address.BookRepository = (*AddressRepository)(nil)

// AddressRepository is a read-only view of the address book maintained by
// the profile subsystem.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// FindByID looks up one of the user's stored addresses.
// Returns address.ErrNotFound when absent or owned by another user.
func (r *AddressRepository) FindByID(ctx context.Context, userID, addressID string) (*address.ShippingAddress, error) {
	rows, err := r.pool.Query(ctx, getAddressByIDSQL, userID, addressID)
	if err != nil {
		return nil, fmt.Errorf("finding address %q: %w", addressID, err)
	}

	addr, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("finding address %q: %w", addressID, err)
	}
	return &addr, nil
}

func scanAddress(row pgx.CollectableRow) (address.ShippingAddress, error) {
	var a address.ShippingAddress
	err := row.Scan(&a.Username, &a.Phone, &a.Address, &a.City, &a.Region, &a.District, &a.Landmark, &a.ShipTo)
	return a, err
}
