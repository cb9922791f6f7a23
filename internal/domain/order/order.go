package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/address"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentMethod tags how the customer intends to pay. Only the tag and the
// paid flags are recorded; capture and settlement happen elsewhere.
type PaymentMethod string

const (
	PaymentCOD       PaymentMethod = "cod"
	PaymentStripe    PaymentMethod = "stripe"
	PaymentPaypal    PaymentMethod = "paypal"
	PaymentJazzCash  PaymentMethod = "jazzcash"
	PaymentEasyPaisa PaymentMethod = "easypaisa"
)

var (
	// ErrEmptySelection is returned when no cart lines were selected.
	ErrEmptySelection = errors.New("select at least one product to create an order")
	// ErrNotFound is returned when an order does not exist (or is not
	// visible to the requesting user).
	ErrNotFound = errors.New("order not found")
	// ErrUnsupportedPaymentMethod is returned for payment methods other
	// than cash on delivery; the others are tags reserved for later.
	ErrUnsupportedPaymentMethod = errors.New("only cash on delivery is available")
)

// InvalidTransitionError indicates a status change the state machine forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// validTransitions is the order state machine: pending fans out to
// processing or cancelled, then the fulfilment chain runs forward only.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Item is a frozen copy of a cart line embedded in an order. It references
// the product ID for traceability only and is never re-read from the live
// catalog.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
}

// PaymentResult is the sub-record filled in by an external payment
// collaborator. The core only stores it.
type PaymentResult struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"updateTime,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// Order is the immutable-once-placed aggregate. After creation it changes
// only through the status state machine and payment-method assignment.
type Order struct {
	// ID is the storage identity; OrderID is the client-facing identifier
	// derived from it (uppercased) when the record is first persisted.
	ID      string
	OrderID string
	// UserID is empty for guest checkout.
	UserID string
	Status Status

	ShippingAddress address.ShippingAddress
	Items           []Item

	PaymentMethod PaymentMethod
	PaymentResult *PaymentResult

	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
	TotalPrice    decimal.Decimal

	IsPaid      bool
	PaidAt      *time.Time
	IsDelivered bool
	DeliveredAt *time.Time
	CreatedAt   time.Time
}

// StatusStamp carries the flag/timestamp updates that accompany a status
// change (delivery and, for collect-on-delivery, payment).
type StatusStamp struct {
	MarkPaid      bool
	MarkDelivered bool
	At            time.Time
}

// Repository defines persistence for the order aggregate. Implementations
// write the whole aggregate atomically: Create must either persist the
// finished order (record, items, stamped OrderID) and delete the consumed
// cart lines in one transaction, or leave no trace at all. No partially
// populated order may ever be visible to other flows.
type Repository interface {
	// Create persists o, stamps o.OrderID from the storage identity
	// (uppercased) and removes the consumed cart lines.
	Create(ctx context.Context, o *Order, consumedLineIDs []string) error
	// GetByOrderID returns the order scoped to userID; an empty userID
	// matches any owner (administrative read).
	GetByOrderID(ctx context.Context, orderID, userID string) (*Order, error)
	// ListByUser returns the user's orders without payment results.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// List returns all orders (administrative read).
	List(ctx context.Context) ([]Order, error)
	// UpdateStatus moves the order from one status to another, applying
	// the stamp, guarded on the current status so a concurrent change
	// cannot be overwritten. Returns ErrNotFound when the guard misses.
	UpdateStatus(ctx context.Context, id string, from, to Status, stamp StatusStamp) error
	// SetPaymentMethod records the payment tag, guarded on pending status.
	SetPaymentMethod(ctx context.Context, id string, method PaymentMethod, to Status) error
	// Delete removes an order entirely (administrative purge).
	Delete(ctx context.Context, id string) error
}
