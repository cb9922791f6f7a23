package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/product"
)

const (
	getProductByIDSQL = `SELECT id, name, price, old_price, image, brand, shipping_fee, stock, sold
		FROM products WHERE id = $1`

	incrementSoldSQL = `UPDATE products SET sold = sold + $2 WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// IncrementSold adds qty to the product's sold counter.
func (r *ProductRepository) IncrementSold(ctx context.Context, id string, qty int) error {
	tag, err := r.pool.Exec(ctx, incrementSoldSQL, id, qty)
	if err != nil {
		return fmt.Errorf("incrementing sold for product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p        product.Product
		oldPrice *decimal.Decimal
		stock    int32
		sold     int32
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &oldPrice, &p.Image, &p.Brand, &p.ShippingFee, &stock, &sold,
	)
	if oldPrice != nil {
		p.OldPrice = *oldPrice
	}
	p.Stock = int(stock)
	p.Sold = int(sold)
	return p, err
}
