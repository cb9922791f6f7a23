// Package inventory reconciles product sold counters after orders commit.
//
// Reconciliation is best-effort relative to order placement: a failure here
// is logged for out-of-band retry and never unwinds an already-committed
// order.
package inventory

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oakmart/storefront/internal/domain/product"
)

// SoldItem is one (product, quantity) pair emitted by a committed order.
type SoldItem struct {
	ProductID string
	Quantity  int
}

// Reconciler increments per-product sold counters.
type Reconciler struct {
	products product.Repository
	// concurrency bounds the number of parallel counter updates.
	concurrency int
}

// NewReconciler creates a Reconciler over the given product repository.
func NewReconciler(products product.Repository) *Reconciler {
	return &Reconciler{products: products, concurrency: 4}
}

// Reconcile increments each product's sold counter by the quantity sold.
// Individual failures are logged and do not stop the remaining updates.
func (r *Reconciler) Reconcile(ctx context.Context, items []SoldItem) {
	if len(items) == 0 {
		return
	}
	lg := zctx.From(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, it := range items {
		g.Go(func() error {
			if err := r.products.IncrementSold(ctx, it.ProductID, it.Quantity); err != nil {
				lg.Error("inventory reconciliation failed",
					zap.String("product_id", it.ProductID),
					zap.Int("quantity", it.Quantity),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ReconcileAsync runs Reconcile in a detached goroutine so checkout does not
// wait on counter updates. The caller's context carries the logger; the
// update itself uses a fresh background context so an already-answered
// request being cancelled does not abort the counters.
func (r *Reconciler) ReconcileAsync(ctx context.Context, items []SoldItem) {
	detached := zctx.Base(context.Background(), zctx.From(ctx))
	go r.Reconcile(detached, items)
}
