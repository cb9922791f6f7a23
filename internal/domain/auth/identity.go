package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// Role classifies what an identity may do.
type Role string

const (
	// RoleCustomer is the default shopper role.
	RoleCustomer Role = "customer"
	// RoleAdmin may drive order fulfilment transitions and read all orders.
	RoleAdmin Role = "admin"
)

// ErrUnknownKey is returned when an API key hash has no active record.
var ErrUnknownKey = errors.New("unknown api key")

// Identity is the authenticated caller supplied by the identity provider.
// The zero value is a guest: no user ID, no role.
type Identity struct {
	UserID string
	Role   Role
}

// IsGuest reports whether the caller is unauthenticated.
func (i Identity) IsGuest() bool { return i.UserID == "" }

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// APIKeyInfo maps a stored key hash to the identity it authenticates.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	UserID  string
	Role    Role
}

// Repository provides lookup of API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
