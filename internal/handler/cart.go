package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakmart/storefront/internal/domain/cart"
)

type addCartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

type updateCartLineRequest struct {
	Quantity int `json:"quantity"`
}

type cartLineResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	OldPrice    float64 `json:"oldPrice,omitempty"`
	Image       string  `json:"image"`
	Brand       string  `json:"brand"`
	ShippingFee float64 `json:"shippingFee"`
	Quantity    int     `json:"quantity"`
	Color       string  `json:"color,omitempty"`
	Size        string  `json:"size,omitempty"`
	TotalPrice  float64 `json:"totalPrice"`
}

func toCartLineResponse(l cart.Line) cartLineResponse {
	return cartLineResponse{
		ID:          l.ID,
		ProductID:   l.ProductID,
		Name:        l.Name,
		Price:       l.Price.InexactFloat64(),
		OldPrice:    l.OldPrice.InexactFloat64(),
		Image:       l.Image,
		Brand:       l.Brand,
		ShippingFee: l.ShippingFee.InexactFloat64(),
		Quantity:    l.Quantity,
		Color:       l.Color,
		Size:        l.Size,
		TotalPrice:  l.TotalPrice.InexactFloat64(),
	}
}

func (h *Handler) listCart(w http.ResponseWriter, r *http.Request) {
	userID := IdentityFrom(r.Context()).UserID

	lines, err := h.carts.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]cartLineResponse, len(lines))
	for i, l := range lines {
		resp[i] = toCartLineResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) addCartLine(w http.ResponseWriter, r *http.Request) {
	var req addCartLineRequest
	if !decodeBody(w, r, &req) {
		return
	}

	line, err := h.carts.Add(r.Context(), cart.AddRequest{
		UserID:    IdentityFrom(r.Context()).UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Color:     req.Color,
		Size:      req.Size,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCartLineResponse(*line))
}

func (h *Handler) updateCartLine(w http.ResponseWriter, r *http.Request) {
	var req updateCartLineRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := IdentityFrom(r.Context()).UserID
	lineID := chi.URLParam(r, "lineID")

	if err := h.carts.UpdateQuantity(r.Context(), userID, lineID, req.Quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCartLine(w http.ResponseWriter, r *http.Request) {
	userID := IdentityFrom(r.Context()).UserID
	lineID := chi.URLParam(r, "lineID")

	if err := h.carts.Remove(r.Context(), userID, lineID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
