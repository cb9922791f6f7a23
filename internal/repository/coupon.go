package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_type, discount_value, min_order_amount, max_order_amount,
		expires_at, usage_limit
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	// Conditional upsert: create the ledger entry at 1, or increment it
	// only while the previous count is below the limit (limit 0 = no
	// ceiling). Returning no row means the ceiling was hit. The check and
	// the increment are one statement, so concurrent redemptions of the
	// same code by the same user cannot exceed the limit.
	redeemCouponSQL = `INSERT INTO coupon_usages (coupon_code, user_id, used_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (coupon_code, user_id) DO UPDATE
		SET used_count = coupon_usages.used_count + 1
		WHERE $3 = 0 OR coupon_usages.used_count < $3
		RETURNING used_count`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code (case-insensitive).
// Returns coupon.ErrNotFound when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Redeem records one use of the coupon by the given user, refusing to push
// the ledger entry past limit. Returns coupon.ErrUsageLimitReached when the
// limit is already consumed.
func (r *CouponRepository) Redeem(ctx context.Context, code, userID string, limit int) error {
	var used int
	err := r.pool.QueryRow(ctx, redeemCouponSQL, code, userID, limit).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.ErrUsageLimitReached
		}
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		expiresAt    time.Time
		usageLimit   int32
	)
	err := row.Scan(
		&c.Code, &discountType, &c.DiscountValue, &c.MinOrderAmount, &c.MaxOrderAmount,
		&expiresAt, &usageLimit,
	)
	c.DiscountType = coupon.DiscountType(discountType)
	c.ExpiresAt = expiresAt
	c.UsageLimit = int(usageLimit)
	c.Active = true
	return c, err
}
