package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a cart line does not exist for the
	// requesting user.
	ErrNotFound = errors.New("cart line not found")
	// ErrInvalidQuantity is returned for quantities below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Line is one product selection pending purchase. Name, prices, image,
// brand and shipping fee are captured from the catalog at add time and are
// not live-synced afterwards.
type Line struct {
	ID          string
	UserID      string
	ProductID   string
	Name        string
	Price       decimal.Decimal
	OldPrice    decimal.Decimal
	Image       string
	Brand       string
	ShippingFee decimal.Decimal
	Quantity    int
	Color       string
	Size        string
	TotalPrice  decimal.Decimal
}

// Repository defines persistence operations for cart lines.
type Repository interface {
	Create(ctx context.Context, line *Line) error
	ListByUser(ctx context.Context, userID string) ([]Line, error)
	// Selected returns the subset of the user's cart lines matching ids.
	// Lines not owned by userID are silently excluded.
	Selected(ctx context.Context, userID string, ids []string) ([]Line, error)
	UpdateQuantity(ctx context.Context, userID, lineID string, qty int, total decimal.Decimal) error
	Delete(ctx context.Context, userID, lineID string) error
}
