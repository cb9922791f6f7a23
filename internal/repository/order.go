package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/storefront/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_id, status, address, payment_method,
		items_price, shipping_price, tax_price, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	// The client-facing identifier is derived from the storage identity,
	// so it can only be stamped after the row exists. Both steps run in
	// the same transaction: no order is ever visible without its OrderID.
	stampOrderIDSQL = `UPDATE orders SET order_id = UPPER(REPLACE(id::text, '-', ''))
		WHERE id = $1 RETURNING order_id`

	deleteConsumedLinesSQL = `DELETE FROM cart_lines WHERE user_id = $1 AND id = ANY($2)`

	getOrderSQL = `SELECT o.id, o.order_id, o.user_id, o.status, o.address, o.payment_method,
		o.payment_result, o.items_price, o.shipping_price, o.tax_price, o.total_price,
		o.is_paid, o.paid_at, o.is_delivered, o.delivered_at, o.created_at
		FROM orders o WHERE o.order_id = $1 AND ($2 = '' OR o.user_id = $2)`

	listOrdersByUserSQL = `SELECT o.id, o.order_id, o.user_id, o.status, o.address, o.payment_method,
		NULL::jsonb, o.items_price, o.shipping_price, o.tax_price, o.total_price,
		o.is_paid, o.paid_at, o.is_delivered, o.delivered_at, o.created_at
		FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC`

	listAllOrdersSQL = `SELECT o.id, o.order_id, o.user_id, o.status, o.address, o.payment_method,
		o.payment_result, o.items_price, o.shipping_price, o.tax_price, o.total_price,
		o.is_paid, o.paid_at, o.is_delivered, o.delivered_at, o.created_at
		FROM orders o ORDER BY o.created_at DESC`

	getOrderItemsSQL = `SELECT product_id, name, price, quantity, image, color, size
		FROM order_items WHERE order_uuid = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $3,
		is_paid = is_paid OR $4,
		paid_at = CASE WHEN $4 THEN $6 ELSE paid_at END,
		is_delivered = is_delivered OR $5,
		delivered_at = CASE WHEN $5 THEN $6 ELSE delivered_at END
		WHERE id = $1 AND status = $2`

	setPaymentMethodSQL = `UPDATE orders SET payment_method = $2, status = $3
		WHERE id = $1 AND status = 'pending'`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the whole aggregate in one transaction: the order row,
// the frozen items, the OrderID stamp derived from the row's identity, and
// the removal of the consumed cart lines. A failure at any step rolls the
// entire write back, so no partially populated order is ever readable.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, consumedLineIDs []string) error {
	addrJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshaling shipping address: %w", err)
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, nullIfEmpty(o.UserID), string(o.Status), addrJSON, string(o.PaymentMethod),
			o.ItemsPrice, o.ShippingPrice, o.TaxPrice, o.TotalPrice, o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		if err := tx.QueryRow(ctx, stampOrderIDSQL, o.ID).Scan(&o.OrderID); err != nil {
			return fmt.Errorf("stamping order id: %w", err)
		}

		rows := make([][]any, len(o.Items))
		for i, it := range o.Items {
			rows[i] = []any{o.ID, it.ProductID, it.Name, it.Price, it.Quantity, it.Image, it.Color, it.Size}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"order_items"},
			[]string{"order_uuid", "product_id", "name", "price", "quantity", "image", "color", "size"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("inserting order items: %w", err)
		}

		if len(consumedLineIDs) > 0 {
			if _, err := tx.Exec(ctx, deleteConsumedLinesSQL, o.UserID, consumedLineIDs); err != nil {
				return fmt.Errorf("deleting consumed cart lines: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByOrderID returns the order with its items, scoped to userID when one
// is given. Returns order.ErrNotFound when absent or owned by someone else.
func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID, userID string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}

	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's orders, payment results omitted.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// List returns all orders (administrative read).
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateStatus applies a guarded status change. The guard on the current
// status makes the transition conditional: if another request moved the
// order first, no rows match and ErrNotFound is returned.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status, stamp order.StatusStamp) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL,
		id, string(from), string(to), stamp.MarkPaid, stamp.MarkDelivered, stamp.At,
	)
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetPaymentMethod records the payment tag, guarded on pending status.
func (r *OrderRepository) SetPaymentMethod(ctx context.Context, id string, method order.PaymentMethod, to order.Status) error {
	tag, err := r.pool.Exec(ctx, setPaymentMethodSQL, id, string(method), string(to))
	if err != nil {
		return fmt.Errorf("setting payment method on order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes the order; items cascade.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteOrderSQL, id); err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *order.Order) error {
	rows, err := r.pool.Query(ctx, getOrderItemsSQL, o.ID)
	if err != nil {
		return fmt.Errorf("loading items for order %q: %w", o.ID, err)
	}
	items, err := pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return fmt.Errorf("loading items for order %q: %w", o.ID, err)
	}
	o.Items = items
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		userID        *string
		status        string
		addrJSON      []byte
		paymentMethod string
		resultJSON    []byte
	)
	err := row.Scan(
		&o.ID, &o.OrderID, &userID, &status, &addrJSON, &paymentMethod,
		&resultJSON, &o.ItemsPrice, &o.ShippingPrice, &o.TaxPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	if userID != nil {
		o.UserID = *userID
	}
	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	if err := json.Unmarshal(addrJSON, &o.ShippingAddress); err != nil {
		return o, fmt.Errorf("unmarshaling shipping address: %w", err)
	}
	if len(resultJSON) > 0 {
		var pr order.PaymentResult
		if err := json.Unmarshal(resultJSON, &pr); err != nil {
			return o, fmt.Errorf("unmarshaling payment result: %w", err)
		}
		o.PaymentResult = &pr
	}
	return o, nil
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Image, &it.Color, &it.Size)
	return it, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
