package address

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when an address-book entry does not exist for
	// the requesting user.
	ErrNotFound = errors.New("shipping address not found")
	// ErrMissingShippingInfo is returned when neither an address-book
	// identifier nor an inline address was supplied.
	ErrMissingShippingInfo = errors.New("shipping address required")
)

// ShippingAddress is the normalized destination attached to an order.
type ShippingAddress struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Region   string `json:"region"`
	District string `json:"district"`
	Landmark string `json:"landmark"`
	ShipTo   string `json:"shipTo"`
}

// BookRepository is a read-only view of a user's stored address book.
type BookRepository interface {
	FindByID(ctx context.Context, userID, addressID string) (*ShippingAddress, error)
}

// Resolver picks a shipping destination from the address book or from an
// inline payload.
type Resolver struct {
	book BookRepository
}

// NewResolver creates a Resolver over the given address book.
func NewResolver(book BookRepository) *Resolver {
	return &Resolver{book: book}
}

// Resolve returns the shipping address for an order. Exactly one of
// addressID and inline must be provided: an identifier is looked up in the
// user's address book, an inline payload is copied verbatim without being
// persisted to the book. When an identifier is present it wins.
func (r *Resolver) Resolve(ctx context.Context, userID, addressID string, inline *ShippingAddress) (*ShippingAddress, error) {
	if addressID != "" {
		addr, err := r.book.FindByID(ctx, userID, addressID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, errors.Wrap(err, "lookup address")
		}
		return addr, nil
	}

	if inline != nil {
		copied := *inline
		return &copied, nil
	}

	return nil, ErrMissingShippingInfo
}
