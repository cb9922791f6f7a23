// Package handler exposes the storefront over HTTP.
//
// Handlers decode JSON, delegate to the domain services and map domain
// errors onto status codes. Money travels as float64 on the wire and as
// decimals everywhere else.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/oakmart/storefront/internal/domain/cart"
	"github.com/oakmart/storefront/internal/domain/coupon"
	"github.com/oakmart/storefront/internal/domain/order"
)

// Handler carries the domain services behind the HTTP surface.
type Handler struct {
	carts   *cart.Service
	orders  *order.Service
	coupons coupon.Validator
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(carts *cart.Service, orders *order.Service, coupons coupon.Validator) *Handler {
	return &Handler{
		carts:   carts,
		orders:  orders,
		coupons: coupons,
	}
}

// Routes builds the API router. All routes pass through the authenticator;
// cart and order routes additionally require a signed-in user, admin routes
// the admin role.
func (h *Handler) Routes(auth *Authenticator) chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Post("/coupons/apply", h.applyCoupon)

		r.Route("/cart", func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/", h.listCart)
			r.Post("/", h.addCartLine)
			r.Put("/{lineID}", h.updateCartLine)
			r.Delete("/{lineID}", h.removeCartLine)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(RequireUser)
			r.Post("/", h.placeOrder)
			r.Get("/", h.listOrders)
			r.Get("/{orderID}", h.getOrder)
			r.Post("/{orderID}/cancel", h.cancelOrder)
			r.Put("/{orderID}/payment", h.setPaymentMethod)
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", h.adminListOrders)
			r.Get("/{orderID}", h.adminGetOrder)
			r.Delete("/{orderID}", h.adminDeleteOrder)
			r.Put("/{orderID}/status", h.adminUpdateStatus)
		})
	})

	return r
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps a domain error onto a status code. Unclassified
// errors are logged and reported as a bare 500 without leaking internals.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if code, ok := statusFor(err); ok {
		writeError(w, code, err.Error())
		return
	}
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
