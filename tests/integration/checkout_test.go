//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
)

const shippingFee = 5000

func addToCart(t *testing.T, token, productID, size string, quantity int) {
	t.Helper()

	resp := doJSON(t, http.MethodPost, "/api/v1/cart/items", token, map[string]any{
		"productId": productID,
		"size":      size,
		"quantity":  quantity,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add to cart: status %d", resp.StatusCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	token := registerCustomer(t, "empty-cart@example.com")

	resp := doJSON(t, http.MethodPost, "/api/v1/orders/checkout", token,
		map[string]any{"paymentMethod": "CONTRA_ENTREGA"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeJSON[errorResponse](t, resp); body.Error != "CART_EMPTY" {
		t.Errorf("error code: got %q, want CART_EMPTY", body.Error)
	}
}

func TestCheckout_UnsupportedMethod(t *testing.T) {
	token := registerCustomer(t, "bad-method@example.com")
	productID := createProduct(t, "Urban Low", 80000, "40", 10)
	addToCart(t, token, productID, "40", 1)

	resp := doJSON(t, http.MethodPost, "/api/v1/orders/checkout", token,
		map[string]any{"paymentMethod": "BITCOIN"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Error != "UNSUPPORTED_PAYMENT_METHOD" {
		t.Errorf("error code: got %q, want UNSUPPORTED_PAYMENT_METHOD", body.Error)
	}
	if len(body.Supported) == 0 {
		t.Error("supportedMethods is empty")
	}
}

func TestCheckout_HappyPath(t *testing.T) {
	token := registerCustomer(t, "happy-path@example.com")
	productID := createProduct(t, "Trail Max", 120000, "42", 5)
	addToCart(t, token, productID, "42", 2)

	resp := doJSON(t, http.MethodPost, "/api/v1/orders/checkout", token,
		map[string]any{"paymentMethod": "contra-entrega", "shippingAddress": "Calle 10 #5-51, Medellin"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	env := decodeJSON[orderEnvelope](t, resp)
	o := env.Order
	if o.Status != "PENDING" {
		t.Errorf("status: got %q, want PENDING", o.Status)
	}
	if o.Subtotal != 240000 {
		t.Errorf("subtotal: got %v, want 240000", o.Subtotal)
	}
	if o.Total != 240000+shippingFee {
		t.Errorf("total: got %v, want %v", o.Total, 240000+shippingFee)
	}
	if o.Payment == nil || o.Payment.Status != "APPROVED" {
		t.Errorf("payment: got %+v, want APPROVED", o.Payment)
	}

	// Stock decremented from 5 to 3.
	prodResp := doGet(t, "/api/v1/products/"+productID, "")
	defer prodResp.Body.Close()
	prod := decodeJSON[productEnvelope](t, prodResp)
	if got := prod.Product.Inventory[0].Quantity; got != 3 {
		t.Errorf("remaining stock: got %d, want 3", got)
	}

	// Cart cleared.
	cartResp := doGet(t, "/api/v1/cart", token)
	defer cartResp.Body.Close()
	if c := decodeJSON[cartEnvelope](t, cartResp); len(c.Cart.Items) != 0 {
		t.Errorf("cart not cleared: %d items remain", len(c.Cart.Items))
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	tokenA := registerCustomer(t, "drainer@example.com")
	tokenB := registerCustomer(t, "loser@example.com")
	productID := createProduct(t, "Court Classic", 95000, "41", 3)

	addToCart(t, tokenA, productID, "41", 3)
	addToCart(t, tokenB, productID, "41", 2)

	// A drains the stock first.
	resp := doJSON(t, http.MethodPost, "/api/v1/orders/checkout", tokenA,
		map[string]any{"paymentMethod": "CONTRA_ENTREGA"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first checkout: expected 201, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, "/api/v1/orders/checkout", tokenB,
		map[string]any{"paymentMethod": "CONTRA_ENTREGA"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second checkout: expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Error != "INSUFFICIENT_STOCK" {
		t.Errorf("error code: got %q, want INSUFFICIENT_STOCK", body.Error)
	}
	if body.ProductID != productID || body.Size != "41" || body.Available != 0 {
		t.Errorf("detail: got %+v", body)
	}
}

func TestCheckout_ConcurrentNoOversell(t *testing.T) {
	const (
		buyers   = 8
		stock    = 3
		perOrder = 1
	)
	productID := createProduct(t, "Limited Drop", 200000, "43", stock)

	tokens := make([]string, buyers)
	for i := range tokens {
		tokens[i] = registerCustomer(t, fmt.Sprintf("racer-%d@example.com", i))
		addToCart(t, tokens[i], productID, "43", perOrder)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		exhausted int
	)
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			resp := doJSON(t, http.MethodPost, "/api/v1/orders/checkout", token,
				map[string]any{"paymentMethod": "CONTRA_ENTREGA"})
			defer resp.Body.Close()

			mu.Lock()
			defer mu.Unlock()
			switch resp.StatusCode {
			case http.StatusCreated:
				created++
			case http.StatusBadRequest:
				exhausted++
			default:
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}(token)
	}
	wg.Wait()

	if created != stock {
		t.Errorf("created orders: got %d, want %d", created, stock)
	}
	if exhausted != buyers-stock {
		t.Errorf("rejected checkouts: got %d, want %d", exhausted, buyers-stock)
	}

	prodResp := doGet(t, "/api/v1/products/"+productID, "")
	defer prodResp.Body.Close()
	if prodResp.StatusCode == http.StatusOK {
		prod := decodeJSON[productEnvelope](t, prodResp)
		if len(prod.Product.Inventory) > 0 && prod.Product.Inventory[0].Quantity < 0 {
			t.Errorf("stock went negative: %d", prod.Product.Inventory[0].Quantity)
		}
	}
}

func TestOrderStatus_AdminUpdate(t *testing.T) {
	token := registerCustomer(t, "status-flow@example.com")
	productID := createProduct(t, "City Walk", 70000, "39", 4)
	addToCart(t, token, productID, "39", 1)

	resp := doJSON(t, http.MethodPost, "/api/v1/orders/checkout", token,
		map[string]any{"paymentMethod": "CONTRA_ENTREGA"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", resp.StatusCode)
	}
	orderID := decodeJSON[orderEnvelope](t, resp).Order.ID
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", adminToken,
		map[string]any{"status": "EN CAMINO"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", resp.StatusCode)
	}
	if body := decodeJSON[errorResponse](t, resp); body.Error != "INVALID_STATUS" {
		t.Errorf("error code: got %q, want INVALID_STATUS", body.Error)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", adminToken,
		map[string]any{"status": "shipped"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid status: expected 200, got %d", resp.StatusCode)
	}
	if o := decodeJSON[orderEnvelope](t, resp).Order; o.Status != "SHIPPED" {
		t.Errorf("status: got %q, want SHIPPED", o.Status)
	}
}
