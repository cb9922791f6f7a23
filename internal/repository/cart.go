package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/cart"
)

const (
	insertCartLineSQL = `INSERT INTO cart_lines (id, user_id, product_id, name, price, old_price,
		image, brand, shipping_fee, quantity, color, size, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	listCartLinesSQL = `SELECT id, user_id, product_id, name, price, old_price,
		image, brand, shipping_fee, quantity, color, size, total_price
		FROM cart_lines WHERE user_id = $1 ORDER BY created_at`

	// Ownership is part of the predicate: identifiers belonging to other
	// users simply do not match, they are not an error.
	selectedCartLinesSQL = `SELECT id, user_id, product_id, name, price, old_price,
		image, brand, shipping_fee, quantity, color, size, total_price
		FROM cart_lines WHERE user_id = $1 AND id = ANY($2) ORDER BY created_at`

	updateCartQuantitySQL = `UPDATE cart_lines SET quantity = $3, total_price = $4
		WHERE user_id = $1 AND id = $2`

	deleteCartLineSQL = `DELETE FROM cart_lines WHERE user_id = $1 AND id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Create persists a new cart line.
func (r *CartRepository) Create(ctx context.Context, l *cart.Line) error {
	_, err := r.pool.Exec(ctx, insertCartLineSQL,
		l.ID, l.UserID, l.ProductID, l.Name, l.Price, l.OldPrice,
		l.Image, l.Brand, l.ShippingFee, l.Quantity, l.Color, l.Size, l.TotalPrice,
	)
	if err != nil {
		return fmt.Errorf("creating cart line %q: %w", l.ID, err)
	}
	return nil
}

// ListByUser returns all of the user's cart lines.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Selected returns the subset of the user's cart lines matching ids. Lines
// owned by other users are silently excluded.
func (r *CartRepository) Selected(ctx context.Context, userID string, ids []string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, selectedCartLinesSQL, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("selecting cart lines for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// UpdateQuantity sets a line's quantity and recomputed total.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, lineID string, qty int, total decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, updateCartQuantitySQL, userID, lineID, qty, total)
	if err != nil {
		return fmt.Errorf("updating cart line %q: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// Delete removes one of the user's cart lines.
func (r *CartRepository) Delete(ctx context.Context, userID, lineID string) error {
	tag, err := r.pool.Exec(ctx, deleteCartLineSQL, userID, lineID)
	if err != nil {
		return fmt.Errorf("deleting cart line %q: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var (
		l        cart.Line
		oldPrice *decimal.Decimal
	)
	err := row.Scan(
		&l.ID, &l.UserID, &l.ProductID, &l.Name, &l.Price, &oldPrice,
		&l.Image, &l.Brand, &l.ShippingFee, &l.Quantity, &l.Color, &l.Size, &l.TotalPrice,
	)
	if oldPrice != nil {
		l.OldPrice = *oldPrice
	}
	return l, err
}
