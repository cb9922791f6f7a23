package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/oakmart/storefront/internal/domain/address"
	"github.com/oakmart/storefront/internal/domain/cart"
	"github.com/oakmart/storefront/internal/domain/coupon"
	"github.com/oakmart/storefront/internal/domain/order"
	"github.com/oakmart/storefront/internal/domain/product"
)

// statusFor classifies a domain error into an HTTP status code. The second
// return is false for errors that have no client-facing classification.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, cart.ErrNotFound):
		return http.StatusNotFound, true

	case errors.Is(err, coupon.ErrExpired),
		errors.Is(err, order.ErrEmptySelection),
		errors.Is(err, order.ErrUnsupportedPaymentMethod),
		errors.Is(err, address.ErrMissingShippingInfo):
		return http.StatusBadRequest, true

	case errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, product.ErrNotFound):
		return http.StatusUnprocessableEntity, true
	}

	var boundsErr *coupon.BoundsError
	if errors.As(err, &boundsErr) {
		return http.StatusBadRequest, true
	}

	var transitionErr *order.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusUnprocessableEntity, true
	}

	return 0, false
}
