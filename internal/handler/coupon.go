package handler

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type applyCouponRequest struct {
	Code       string  `json:"code"`
	OrderTotal float64 `json:"orderTotal"`
}

type applyCouponResponse struct {
	Code            string  `json:"code"`
	DiscountType    string  `json:"discountType"`
	DiscountValue   float64 `json:"discountValue"`
	DiscountedTotal float64 `json:"discountedTotal"`
}

// applyCoupon validates a coupon against an order total and returns the
// discount it grants. Authenticated callers consume one use of the coupon;
// guests get a preview without touching the usage ledger.
func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "coupon code is required")
		return
	}

	total := decimal.NewFromFloat(req.OrderTotal)
	userID := IdentityFrom(r.Context()).UserID

	d, err := h.coupons.Apply(r.Context(), req.Code, userID, total)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, applyCouponResponse{
		Code:            req.Code,
		DiscountType:    string(d.Type),
		DiscountValue:   d.Value.InexactFloat64(),
		DiscountedTotal: d.ApplyTo(total).InexactFloat64(),
	})
}
