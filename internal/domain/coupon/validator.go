package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator decides whether a coupon code is usable for a given user and
// order total, and records the redemption on success.
type Validator interface {
	Apply(ctx context.Context, code, userID string, total decimal.Decimal) (*Discount, error)
}

// RepoValidator implements Validator against a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Apply validates the coupon for the given user and order total and, on
// success, records the redemption in the per-user ledger.
//
// Checks run in order against a single loaded snapshot: existence/active,
// expiry, min/max order bounds, then the usage limit. The limit check and
// the ledger increment are one conditional write in the repository, so
// concurrent redemptions cannot push a user past the limit.
//
// Guest requests (empty userID) skip usage tracking entirely and may reuse
// a coupon without limit; guests have no stable identity to attach a
// ledger entry to.
func (v *RepoValidator) Apply(ctx context.Context, code, userID string, total decimal.Decimal) (*Discount, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !v.now().Before(c.ExpiresAt) {
		return nil, ErrExpired
	}

	if total.LessThan(c.MinOrderAmount) {
		return nil, &BoundsError{Bound: BoundMin, Limit: c.MinOrderAmount}
	}
	if total.GreaterThan(c.MaxOrderAmount) {
		return nil, &BoundsError{Bound: BoundMax, Limit: c.MaxOrderAmount}
	}

	if userID != "" {
		if err := v.repo.Redeem(ctx, c.Code, userID, c.UsageLimit); err != nil {
			if errors.Is(err, ErrUsageLimitReached) {
				return nil, ErrUsageLimitReached
			}
			return nil, errors.Wrap(err, "redeem coupon")
		}
	}

	return &Discount{Type: c.DiscountType, Value: c.DiscountValue}, nil
}
