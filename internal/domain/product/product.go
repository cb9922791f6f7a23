package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is the slice of the catalog this core cares about: the fields
// denormalized into cart lines at add time, plus the stock/sold counters
// maintained by the inventory reconciler. The rest of the catalog record
// belongs to the catalog subsystem.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	OldPrice    decimal.Decimal
	Image       string
	Brand       string
	ShippingFee decimal.Decimal
	Stock       int
	Sold        int
}

// Repository defines catalog reads and the sold-counter mutation.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	// IncrementSold adds qty to the product's sold counter.
	IncrementSold(ctx context.Context, id string, qty int) error
}
