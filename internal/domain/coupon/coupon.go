package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage reduces the order total by a percentage.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed subtracts a fixed amount, floored at zero.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned when a coupon code does not resolve to an
	// existing, active coupon.
	ErrNotFound = errors.New("invalid coupon code")
	// ErrExpired is returned when a coupon is past its expiry timestamp.
	ErrExpired = errors.New("coupon code is expired")
	// ErrUsageLimitReached is returned when the requesting user has exhausted
	// the coupon's per-user usage limit.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)

// Bound identifies which order-amount bound a BoundsError violated.
type Bound string

const (
	// BoundMin means the order total was below the coupon's minimum.
	BoundMin Bound = "min"
	// BoundMax means the order total was above the coupon's maximum.
	BoundMax Bound = "max"
)

// BoundsError indicates the order total falls outside the coupon's
// min/max order amount window. Limit carries the violated bound value.
type BoundsError struct {
	Bound Bound
	Limit decimal.Decimal
}

func (e *BoundsError) Error() string {
	if e.Bound == BoundMin {
		return fmt.Sprintf("coupon requires a minimum order of %s", e.Limit)
	}
	return fmt.Sprintf("coupon is valid only for orders of %s or less", e.Limit)
}

// Coupon is a promotional rule. The core never creates or deletes coupons;
// administrative lifecycle is external (see cmd/coupon-ingest).
type Coupon struct {
	Code           string
	DiscountType   DiscountType
	DiscountValue  decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxOrderAmount decimal.Decimal
	ExpiresAt      time.Time
	Active         bool
	// UsageLimit caps how many times a single user may redeem this coupon.
	// Zero means unlimited.
	UsageLimit int
}

// Discount is the descriptor returned to callers on successful validation.
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// ApplyTo returns the given total with the discount applied.
// Percentage multiplies by (1 - value/100); fixed subtracts the value,
// floored at zero. Results are rounded to 2 decimal places.
func (d Discount) ApplyTo(total decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch d.Type {
	case DiscountFixed:
		out = total.Sub(d.Value)
	case DiscountPercentage:
		out = total.Mul(decimal.NewFromInt(100).Sub(d.Value)).Div(decimal.NewFromInt(100))
	default:
		out = total
	}
	if out.IsNegative() {
		out = decimal.Zero
	}
	return out.Round(2)
}

// Repository provides coupon lookup and ledger mutation.
//
// Redeem must be a single atomically-applied conditional update: it creates
// the user's ledger entry at count 1, or increments it only while the count
// is below limit (limit 0 means no ceiling). It returns ErrUsageLimitReached
// when the ceiling would be exceeded. A plain load-mutate-save sequence is
// not acceptable here: two concurrent redemptions of the same code by the
// same user must not both succeed once the limit is reached.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Redeem(ctx context.Context, code, userID string, limit int) error
}
