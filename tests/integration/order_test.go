//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var orderIDPattern = regexp.MustCompile(`^[0-9A-F]{32}$`)

var testAddress = shippingAddress{
	Username: "Demo Customer",
	Phone:    "+1-555-0142",
	Address:  "480 Maple Crescent, Apt 7",
	City:     "Portland",
	Region:   "Oregon",
	District: "Multnomah",
	ShipTo:   "home",
}

// addCartLine seeds a cart line for the given key and returns it.
func addCartLine(t *testing.T, apiKey, productID string, quantity int) cartLineResponse {
	t.Helper()

	resp := do(t, http.MethodPost, "/api/cart", addCartLineRequest{ProductID: productID, Quantity: quantity}, apiKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add cart line: expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[cartLineResponse](t, resp)
}

func placeOrder(t *testing.T, apiKey string, req placeOrderRequest) orderResponse {
	t.Helper()

	resp := do(t, http.MethodPost, "/api/orders", req, apiKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[orderResponse](t, resp)
}

func TestCart_NoAuth(t *testing.T) {
	resp := doGet(t, "/api/cart")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCart_UnknownProduct(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/cart", addCartLineRequest{ProductID: "p-999", Quantity: 1}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InvalidKey(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{}, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptySelection(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{
		SelectedLineIDs: []string{},
		Address:         &testAddress,
	}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_MissingShippingInfo(t *testing.T) {
	line := addCartLine(t, customerKey, "p-600", 1)

	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{
		SelectedLineIDs: []string{line.ID},
	}, customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckoutFlow(t *testing.T) {
	// 2x Walnut Desk Organizer at 35.00 plus 1x Linen Throw Pillow at 22.25.
	line1 := addCartLine(t, customerKey, "p-100", 2)
	line2 := addCartLine(t, customerKey, "p-300", 1)

	if line1.TotalPrice != 70 {
		t.Errorf("line1 total: got %v, want 70", line1.TotalPrice)
	}

	order := placeOrder(t, customerKey, placeOrderRequest{
		SelectedLineIDs: []string{line1.ID, line2.ID},
		Address:         &testAddress,
		ShippingPrice:   10,
		TaxPrice:        5,
	})

	if !orderIDPattern.MatchString(order.OrderID) {
		t.Errorf("order ID %q does not match expected format", order.OrderID)
	}
	if order.Status != "pending" {
		t.Errorf("status: got %q, want pending", order.Status)
	}
	if order.ItemsPrice != 92.25 {
		t.Errorf("items price: got %v, want 92.25", order.ItemsPrice)
	}
	if order.TotalPrice != 107.25 {
		t.Errorf("total price: got %v, want 107.25", order.TotalPrice)
	}
	if len(order.Items) != 2 {
		t.Errorf("items: got %d, want 2", len(order.Items))
	}
	if order.ShippingAddress.City != "Portland" {
		t.Errorf("address city: got %q, want Portland", order.ShippingAddress.City)
	}

	// Consumed cart lines are gone.
	cartResp := do(t, http.MethodGet, "/api/cart", nil, customerKey)
	defer cartResp.Body.Close()
	lines := decodeJSON[[]cartLineResponse](t, cartResp)
	for _, l := range lines {
		if l.ID == line1.ID || l.ID == line2.ID {
			t.Errorf("cart line %s still present after checkout", l.ID)
		}
	}

	// The order is readable by its owner.
	getResp := do(t, http.MethodGet, "/api/orders/"+order.OrderID, nil, customerKey)
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", getResp.StatusCode)
	}
	fetched := decodeJSON[orderResponse](t, getResp)
	if fetched.OrderID != order.OrderID {
		t.Errorf("fetched order ID: got %q, want %q", fetched.OrderID, order.OrderID)
	}
}

func TestPlaceOrder_WithCouponAndStoredAddress(t *testing.T) {
	line := addCartLine(t, customerKey, "p-100", 2) // 70.00

	order := placeOrder(t, customerKey, placeOrderRequest{
		SelectedLineIDs: []string{line.ID},
		AddressID:       "addr-demo-1",
		CouponCode:      "WELCOME10",
		ShippingPrice:   5,
	})

	// 70 * (100-10)/100 = 63, plus shipping.
	if order.TotalPrice != 68 {
		t.Errorf("total price: got %v, want 68", order.TotalPrice)
	}
	if order.ShippingAddress.ShipTo != "home" {
		t.Errorf("ship to: got %q, want home", order.ShippingAddress.ShipTo)
	}
}

func TestCancelOrder(t *testing.T) {
	line := addCartLine(t, customerKey, "p-600", 1)
	order := placeOrder(t, customerKey, placeOrderRequest{
		SelectedLineIDs: []string{line.ID},
		Address:         &testAddress,
	})

	resp := do(t, http.MethodPost, "/api/orders/"+order.OrderID+"/cancel", nil, customerKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("cancel: expected 204, got %d", resp.StatusCode)
	}

	// Cancelling twice is an invalid transition.
	again := do(t, http.MethodPost, "/api/orders/"+order.OrderID+"/cancel", nil, customerKey)
	defer again.Body.Close()
	if again.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("cancel twice: expected 422, got %d", again.StatusCode)
	}
}

func TestOrderLifecycle_AdminFlow(t *testing.T) {
	line := addCartLine(t, customerKey, "p-200", 1)
	order := placeOrder(t, customerKey, placeOrderRequest{
		SelectedLineIDs: []string{line.ID},
		Address:         &testAddress,
	})

	// Customers cannot reach admin routes.
	forbidden := do(t, http.MethodPut, "/api/admin/orders/"+order.OrderID+"/status",
		map[string]string{"status": "shipped"}, customerKey)
	forbidden.Body.Close()
	if forbidden.StatusCode != http.StatusForbidden {
		t.Fatalf("customer on admin route: expected 403, got %d", forbidden.StatusCode)
	}

	// Shipping a pending order is an invalid transition.
	early := do(t, http.MethodPut, "/api/admin/orders/"+order.OrderID+"/status",
		map[string]string{"status": "shipped"}, adminKey)
	early.Body.Close()
	if early.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("ship pending: expected 422, got %d", early.StatusCode)
	}

	// Confirming the payment method moves the order to processing.
	pay := do(t, http.MethodPut, "/api/orders/"+order.OrderID+"/payment",
		map[string]string{"method": "cod"}, customerKey)
	pay.Body.Close()
	if pay.StatusCode != http.StatusNoContent {
		t.Fatalf("set payment: expected 204, got %d", pay.StatusCode)
	}

	for _, status := range []string{"shipped", "delivered"} {
		resp := do(t, http.MethodPut, "/api/admin/orders/"+order.OrderID+"/status",
			map[string]string{"status": status}, adminKey)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("transition to %s: expected 204, got %d", status, resp.StatusCode)
		}
	}

	// Delivery of a cash-on-delivery order settles payment.
	getResp := do(t, http.MethodGet, "/api/admin/orders/"+order.OrderID, nil, adminKey)
	defer getResp.Body.Close()
	final := decodeJSON[orderResponse](t, getResp)
	if final.Status != "delivered" {
		t.Errorf("status: got %q, want delivered", final.Status)
	}
	if !final.IsDelivered {
		t.Error("isDelivered: got false, want true")
	}
	if !final.IsPaid {
		t.Error("isPaid: got false, want true for delivered COD order")
	}
}

func TestAdminDeleteOrder(t *testing.T) {
	line := addCartLine(t, customerKey, "p-300", 1)
	order := placeOrder(t, customerKey, placeOrderRequest{
		SelectedLineIDs: []string{line.ID},
		Address:         &testAddress,
	})

	del := do(t, http.MethodDelete, "/api/admin/orders/"+order.OrderID, nil, adminKey)
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", del.StatusCode)
	}

	getResp := do(t, http.MethodGet, "/api/admin/orders/"+order.OrderID, nil, adminKey)
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", getResp.StatusCode)
	}
}
