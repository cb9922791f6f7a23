package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/domain/product"
)

type countingRepo struct {
	mu     sync.Mutex
	sold   map[string]int
	failOn string
}

func (r *countingRepo) GetByID(_ context.Context, _ string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (r *countingRepo) IncrementSold(_ context.Context, id string, qty int) error {
	if id == r.failOn {
		return errors.New("counter update failed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sold[id] += qty
	return nil
}

func TestReconcile_IncrementsEachProduct(t *testing.T) {
	repo := &countingRepo{sold: make(map[string]int)}
	r := NewReconciler(repo)

	r.Reconcile(context.Background(), []SoldItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 3},
	})

	assert.Equal(t, 5, repo.sold["p1"])
	assert.Equal(t, 1, repo.sold["p2"])
}

func TestReconcile_FailureDoesNotStopRemaining(t *testing.T) {
	repo := &countingRepo{sold: make(map[string]int), failOn: "p1"}
	r := NewReconciler(repo)

	// Must not panic or return; the failed counter is logged, the rest land.
	r.Reconcile(context.Background(), []SoldItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 4},
	})

	assert.Equal(t, 0, repo.sold["p1"])
	assert.Equal(t, 4, repo.sold["p2"])
}

func TestReconcile_EmptyIsNoop(t *testing.T) {
	repo := &countingRepo{sold: make(map[string]int)}
	r := NewReconciler(repo)

	require.NotPanics(t, func() {
		r.Reconcile(context.Background(), nil)
	})
	assert.Empty(t, repo.sold)
}
