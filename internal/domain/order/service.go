package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/address"
	"github.com/oakmart/storefront/internal/domain/cart"
	"github.com/oakmart/storefront/internal/domain/coupon"
	"github.com/oakmart/storefront/internal/inventory"
)

// AddressResolver resolves a shipping destination from an address-book
// identifier or an inline payload.
type AddressResolver interface {
	Resolve(ctx context.Context, userID, addressID string, inline *address.ShippingAddress) (*address.ShippingAddress, error)
}

// InventoryReconciler receives the (product, quantity) pairs of a committed
// order. It must not block checkout or surface failures into it.
type InventoryReconciler interface {
	ReconcileAsync(ctx context.Context, items []inventory.SoldItem)
}

// PlaceRequest holds the input for assembling an order.
type PlaceRequest struct {
	// UserID is empty for guest checkout.
	UserID string
	// SelectedLineIDs are the cart lines being bought.
	SelectedLineIDs []string
	// AddressID selects a stored address; Address is an inline destination.
	// Exactly one must be set.
	AddressID string
	Address   *address.ShippingAddress
	// CouponCode optionally applies a promotional discount.
	CouponCode string
	// ShippingPrice and TaxPrice are externally supplied inputs; the core
	// does not compute rates.
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
}

// Service is the order assembler: it composes the aggregate from cart
// lines, resolved address and coupon discount, persists it, and hands the
// sold quantities to the inventory reconciler.
type Service struct {
	orders     Repository
	lines      cart.Repository
	coupons    coupon.Validator
	addresses  AddressResolver
	reconciler InventoryReconciler
	newID      func() string
	now        func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(
	orders Repository,
	lines cart.Repository,
	coupons coupon.Validator,
	addresses AddressResolver,
	reconciler InventoryReconciler,
	newID func() string,
) *Service {
	return &Service{
		orders:     orders,
		lines:      lines,
		coupons:    coupons,
		addresses:  addresses,
		reconciler: reconciler,
		newID:      newID,
		now:        time.Now,
	}
}

// Place assembles and persists a new order.
//
// The aggregate is written in a single atomic repository call; a failure at
// any step before that leaves no persisted record. After the commit the
// sold quantities are handed to the reconciler asynchronously.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	if len(req.SelectedLineIDs) == 0 {
		return nil, ErrEmptySelection
	}

	addr, err := s.addresses.Resolve(ctx, req.UserID, req.AddressID, req.Address)
	if err != nil {
		return nil, err
	}

	selected, err := s.lines.Selected(ctx, req.UserID, req.SelectedLineIDs)
	if err != nil {
		return nil, errors.Wrap(err, "load cart lines")
	}
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}

	itemsPrice := decimal.Zero
	for _, l := range selected {
		itemsPrice = itemsPrice.Add(l.TotalPrice)
	}

	discounted := itemsPrice
	if req.CouponCode != "" {
		d, err := s.coupons.Apply(ctx, req.CouponCode, req.UserID, itemsPrice)
		if err != nil {
			return nil, err
		}
		discounted = d.ApplyTo(itemsPrice)
	}
	totalPrice := discounted.Add(req.ShippingPrice).Add(req.TaxPrice)

	items := make([]Item, len(selected))
	sold := make([]inventory.SoldItem, len(selected))
	consumed := make([]string, len(selected))
	for i, l := range selected {
		items[i] = Item{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Image:     l.Image,
			Color:     l.Color,
			Size:      l.Size,
		}
		sold[i] = inventory.SoldItem{ProductID: l.ProductID, Quantity: l.Quantity}
		consumed[i] = l.ID
	}

	o := &Order{
		ID:              s.newID(),
		UserID:          req.UserID,
		Status:          StatusPending,
		ShippingAddress: *addr,
		Items:           items,
		PaymentMethod:   PaymentCOD,
		ItemsPrice:      itemsPrice,
		ShippingPrice:   req.ShippingPrice,
		TaxPrice:        req.TaxPrice,
		TotalPrice:      totalPrice,
		CreatedAt:       s.now(),
	}
	if err := s.orders.Create(ctx, o, consumed); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.reconciler.ReconcileAsync(ctx, sold)

	return o, nil
}

// Cancel moves the user's order to cancelled. Only pending orders may be
// cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) error {
	o, err := s.orders.GetByOrderID(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return &InvalidTransitionError{From: o.Status, To: StatusCancelled}
	}
	return s.orders.UpdateStatus(ctx, o.ID, o.Status, StatusCancelled, StatusStamp{At: s.now()})
}

// SetPaymentMethod records the payment tag on the user's order and moves it
// from pending to processing. Only cash on delivery is accepted; the other
// method tags exist for records written by external collaborators.
func (s *Service) SetPaymentMethod(ctx context.Context, orderID, userID string, method PaymentMethod) error {
	if method != PaymentCOD {
		return ErrUnsupportedPaymentMethod
	}

	o, err := s.orders.GetByOrderID(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, StatusProcessing) {
		return &InvalidTransitionError{From: o.Status, To: StatusProcessing}
	}
	return s.orders.SetPaymentMethod(ctx, o.ID, method, StatusProcessing)
}

// Transition moves an order along the fulfilment chain (administrative).
// Entering delivered stamps the delivery flag; for collect-on-delivery
// orders it also marks the order paid, since delivery is when the cash
// changes hands.
func (s *Service) Transition(ctx context.Context, orderID string, target Status) error {
	o, err := s.orders.GetByOrderID(ctx, orderID, "")
	if err != nil {
		return err
	}
	if target != StatusShipped && target != StatusDelivered {
		return &InvalidTransitionError{From: o.Status, To: target}
	}
	if !CanTransition(o.Status, target) {
		return &InvalidTransitionError{From: o.Status, To: target}
	}

	stamp := StatusStamp{At: s.now()}
	if target == StatusDelivered {
		stamp.MarkDelivered = true
		stamp.MarkPaid = o.PaymentMethod == PaymentCOD
	}
	return s.orders.UpdateStatus(ctx, o.ID, o.Status, target, stamp)
}

// Get returns the user's order by its client-facing identifier.
func (s *Service) Get(ctx context.Context, orderID, userID string) (*Order, error) {
	return s.orders.GetByOrderID(ctx, orderID, userID)
}

// ListByUser returns the user's orders.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListAll returns every order (administrative).
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// Purge deletes an order entirely (administrative).
func (s *Service) Purge(ctx context.Context, orderID string) error {
	o, err := s.orders.GetByOrderID(ctx, orderID, "")
	if err != nil {
		return err
	}
	return s.orders.Delete(ctx, o.ID)
}
