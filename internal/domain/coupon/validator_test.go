package coupon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	coupon     *Coupon
	err        error
	redeemErr  error
	redeemCode string
	redeemUser string
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*Coupon, error) {
	return m.coupon, m.err
}

func (m *mockCouponRepo) Redeem(_ context.Context, code, userID string, _ int) error {
	m.redeemCode = code
	m.redeemUser = userID
	return m.redeemErr
}

func TestRepoValidator_Apply(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := fixedNow.Add(24 * time.Hour)
	past := fixedNow.Add(-24 * time.Hour)

	valid := func() *Coupon {
		return &Coupon{
			Code:           "SAVE10",
			DiscountType:   DiscountPercentage,
			DiscountValue:  decimal.NewFromInt(10),
			MinOrderAmount: decimal.Zero,
			MaxOrderAmount: decimal.NewFromInt(5000),
			ExpiresAt:      future,
			Active:         true,
			UsageLimit:     0,
		}
	}

	tests := []struct {
		name      string
		repo      *mockCouponRepo
		userID    string
		total     decimal.Decimal
		wantValue decimal.Decimal
		wantType  DiscountType
		wantErr   error
		wantBound Bound
	}{
		{
			name:      "valid code returns discount descriptor",
			repo:      &mockCouponRepo{coupon: valid()},
			userID:    "u1",
			total:     decimal.NewFromInt(1000),
			wantType:  DiscountPercentage,
			wantValue: decimal.NewFromInt(10),
		},
		{
			name:    "unknown code returns ErrNotFound",
			repo:    &mockCouponRepo{err: ErrNotFound},
			userID:  "u1",
			total:   decimal.NewFromInt(1000),
			wantErr: ErrNotFound,
		},
		{
			name: "expired coupon",
			repo: &mockCouponRepo{coupon: func() *Coupon {
				c := valid()
				c.ExpiresAt = past
				return c
			}()},
			userID:  "u1",
			total:   decimal.NewFromInt(1000),
			wantErr: ErrExpired,
		},
		{
			name: "total below minimum reports min bound",
			repo: &mockCouponRepo{coupon: func() *Coupon {
				c := valid()
				c.MinOrderAmount = decimal.NewFromInt(500)
				return c
			}()},
			userID:    "u1",
			total:     decimal.NewFromInt(100),
			wantBound: BoundMin,
		},
		{
			name:      "total above maximum reports max bound",
			repo:      &mockCouponRepo{coupon: valid()},
			userID:    "u1",
			total:     decimal.NewFromInt(9000),
			wantBound: BoundMax,
		},
		{
			name: "total equal to bounds is accepted",
			repo: &mockCouponRepo{coupon: func() *Coupon {
				c := valid()
				c.MinOrderAmount = decimal.NewFromInt(1000)
				c.MaxOrderAmount = decimal.NewFromInt(1000)
				return c
			}()},
			userID:    "u1",
			total:     decimal.NewFromInt(1000),
			wantType:  DiscountPercentage,
			wantValue: decimal.NewFromInt(10),
		},
		{
			name: "usage limit reached",
			repo: &mockCouponRepo{
				coupon:    func() *Coupon { c := valid(); c.UsageLimit = 1; return c }(),
				redeemErr: ErrUsageLimitReached,
			},
			userID:  "u1",
			total:   decimal.NewFromInt(1000),
			wantErr: ErrUsageLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRepoValidator(tt.repo)
			v.now = func() time.Time { return fixedNow }

			got, err := v.Apply(context.Background(), "SAVE10", tt.userID, tt.total)

			if tt.wantBound != "" {
				var be *BoundsError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, tt.wantBound, be.Bound)
				assert.Nil(t, got)
				return
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.True(t, tt.wantValue.Equal(got.Value),
				"expected value %s, got %s", tt.wantValue, got.Value)
		})
	}
}

func TestRepoValidator_GuestSkipsLedger(t *testing.T) {
	repo := &mockCouponRepo{
		coupon: &Coupon{
			Code:           "GUESTOK",
			DiscountType:   DiscountFixed,
			DiscountValue:  decimal.NewFromInt(50),
			MaxOrderAmount: decimal.NewFromInt(5000),
			ExpiresAt:      time.Now().Add(time.Hour),
			Active:         true,
			UsageLimit:     1,
		},
		redeemErr: errors.New("redeem must not be called for guests"),
	}

	v := NewRepoValidator(repo)
	got, err := v.Apply(context.Background(), "GUESTOK", "", decimal.NewFromInt(100))

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, repo.redeemCode)
}

func TestRepoValidator_RedeemRecordsUser(t *testing.T) {
	repo := &mockCouponRepo{
		coupon: &Coupon{
			Code:           "TRACKED",
			DiscountType:   DiscountFixed,
			DiscountValue:  decimal.NewFromInt(5),
			MaxOrderAmount: decimal.NewFromInt(5000),
			ExpiresAt:      time.Now().Add(time.Hour),
			Active:         true,
		},
	}

	v := NewRepoValidator(repo)
	_, err := v.Apply(context.Background(), "TRACKED", "u42", decimal.NewFromInt(100))

	require.NoError(t, err)
	assert.Equal(t, "TRACKED", repo.redeemCode)
	assert.Equal(t, "u42", repo.redeemUser)
}

// ledgerRepo is an in-memory repository whose Redeem is a conditional
// increment under a mutex, mirroring the SQL increment-with-ceiling.
type ledgerRepo struct {
	coupon *Coupon

	mu     sync.Mutex
	ledger map[string]int
}

func (r *ledgerRepo) FindByCode(_ context.Context, _ string) (*Coupon, error) {
	return r.coupon, nil
}

func (r *ledgerRepo) Redeem(_ context.Context, _, userID string, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit != 0 && r.ledger[userID] >= limit {
		return ErrUsageLimitReached
	}
	r.ledger[userID]++
	return nil
}

func TestRepoValidator_ConcurrentRedemptionRespectsLimit(t *testing.T) {
	const (
		limit    = 3
		attempts = 20
	)

	repo := &ledgerRepo{
		coupon: &Coupon{
			Code:           "LIMITED",
			DiscountType:   DiscountPercentage,
			DiscountValue:  decimal.NewFromInt(10),
			MaxOrderAmount: decimal.NewFromInt(5000),
			ExpiresAt:      time.Now().Add(time.Hour),
			Active:         true,
			UsageLimit:     limit,
		},
		ledger: make(map[string]int),
	}
	v := NewRepoValidator(repo)

	var (
		wg        sync.WaitGroup
		successMu sync.Mutex
		successes int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Apply(context.Background(), "LIMITED", "u1", decimal.NewFromInt(100))
			if err == nil {
				successMu.Lock()
				successes++
				successMu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrUsageLimitReached)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, successes)
	assert.Equal(t, limit, repo.ledger["u1"])
}

func TestDiscount_ApplyTo(t *testing.T) {
	tests := []struct {
		name     string
		discount Discount
		total    string
		want     string
	}{
		{"percentage 10 on 1000", Discount{DiscountPercentage, decimal.NewFromInt(10)}, "1000", "900"},
		{"percentage 10 on 1300", Discount{DiscountPercentage, decimal.NewFromInt(10)}, "1300", "1170"},
		{"fixed 200 on 150 floors at zero", Discount{DiscountFixed, decimal.NewFromInt(200)}, "150", "0"},
		{"fixed 50 on 1000", Discount{DiscountFixed, decimal.NewFromInt(50)}, "1000", "950"},
		{"percentage rounds to cents", Discount{DiscountPercentage, decimal.NewFromInt(15)}, "99.99", "84.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.discount.ApplyTo(decimal.RequireFromString(tt.total))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"expected %s, got %s", tt.want, got)
		})
	}
}
