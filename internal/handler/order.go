package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/address"
	"github.com/oakmart/storefront/internal/domain/order"
)

type placeOrderRequest struct {
	SelectedLineIDs []string                 `json:"selectedLineIds"`
	AddressID       string                   `json:"addressId,omitempty"`
	Address         *address.ShippingAddress `json:"address,omitempty"`
	CouponCode      string                   `json:"couponCode,omitempty"`
	ShippingPrice   float64                  `json:"shippingPrice"`
	TaxPrice        float64                  `json:"taxPrice"`
}

type setPaymentMethodRequest struct {
	Method string `json:"method"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
	Color     string  `json:"color,omitempty"`
	Size      string  `json:"size,omitempty"`
}

type orderResponse struct {
	OrderID         string                  `json:"orderId"`
	Status          string                  `json:"status"`
	ShippingAddress address.ShippingAddress `json:"shippingAddress"`
	Items           []orderItemResponse     `json:"items"`
	PaymentMethod   string                  `json:"paymentMethod"`
	PaymentResult   *order.PaymentResult    `json:"paymentResult,omitempty"`
	ItemsPrice      float64                 `json:"itemsPrice"`
	ShippingPrice   float64                 `json:"shippingPrice"`
	TaxPrice        float64                 `json:"taxPrice"`
	TotalPrice      float64                 `json:"totalPrice"`
	IsPaid          bool                    `json:"isPaid"`
	PaidAt          *time.Time              `json:"paidAt,omitempty"`
	IsDelivered     bool                    `json:"isDelivered"`
	DeliveredAt     *time.Time              `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.InexactFloat64(),
			Quantity:  it.Quantity,
			Image:     it.Image,
			Color:     it.Color,
			Size:      it.Size,
		}
	}
	return orderResponse{
		OrderID:         o.OrderID,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		Items:           items,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentResult:   o.PaymentResult,
		ItemsPrice:      o.ItemsPrice.InexactFloat64(),
		ShippingPrice:   o.ShippingPrice.InexactFloat64(),
		TaxPrice:        o.TaxPrice.InexactFloat64(),
		TotalPrice:      o.TotalPrice.InexactFloat64(),
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}

func toOrderListResponse(orders []order.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	return resp
}

// placeOrder assembles an order from the caller's selected cart lines.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Place(r.Context(), order.PlaceRequest{
		UserID:          IdentityFrom(r.Context()).UserID,
		SelectedLineIDs: req.SelectedLineIDs,
		AddressID:       req.AddressID,
		Address:         req.Address,
		CouponCode:      req.CouponCode,
		ShippingPrice:   decimal.NewFromFloat(req.ShippingPrice),
		TaxPrice:        decimal.NewFromFloat(req.TaxPrice),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), IdentityFrom(r.Context()).UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListResponse(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	userID := IdentityFrom(r.Context()).UserID
	orderID := chi.URLParam(r, "orderID")

	o, err := h.orders.Get(r.Context(), orderID, userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	userID := IdentityFrom(r.Context()).UserID
	orderID := chi.URLParam(r, "orderID")

	if err := h.orders.Cancel(r.Context(), orderID, userID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req setPaymentMethodRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := IdentityFrom(r.Context()).UserID
	orderID := chi.URLParam(r, "orderID")

	err := h.orders.SetPaymentMethod(r.Context(), orderID, userID, order.PaymentMethod(req.Method))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListResponse(orders))
}

func (h *Handler) adminGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"), "")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) adminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Purge(r.Context(), chi.URLParam(r, "orderID")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.orders.Transition(r.Context(), chi.URLParam(r, "orderID"), order.Status(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
