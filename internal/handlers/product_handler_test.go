package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ecomlabs/storefront/internal/models"
)

func TestListProducts(t *testing.T) {
	router, store := newTestRouter(t)
	seedProduct(t, store, "p1", "Trail Boots", 1000, 10)
	seedProduct(t, store, "p2", "Sun Hat", 250, 5)

	req := httptest.NewRequest(http.MethodGet, "/api/product", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var products []models.Product
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("expected 2 products, got %d", len(products))
	}
}

func TestGetProduct(t *testing.T) {
	router, store := newTestRouter(t)
	seedProduct(t, store, "p1", "Trail Boots", 1000, 10)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"existing product", "/api/product/p1", http.StatusOK},
		{"missing product", "/api/product/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestGetProduct_ExposesDynamicPrice(t *testing.T) {
	router, store := newTestRouter(t)
	seedProduct(t, store, "p1", "Trail Boots", 1000, 10)
	if err := store.SetDynamicPrice(context.Background(), "p1", 1200); err != nil {
		t.Fatalf("set dynamic price: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/product/p1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var product models.Product
	if err := json.NewDecoder(w.Body).Decode(&product); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if product.DynamicPrice == nil || *product.DynamicPrice != 1200 {
		t.Errorf("expected dynamic price 1200, got %v", product.DynamicPrice)
	}
	if product.CurrentPrice() != 1200 {
		t.Errorf("expected current price 1200, got %d", product.CurrentPrice())
	}
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
	}{
		{"valid update", "/api/product/p1/quantity", `{"quantity": 25}`, http.StatusOK},
		{"negative quantity", "/api/product/p1/quantity", `{"quantity": -1}`, http.StatusBadRequest},
		{"missing product", "/api/product/nope/quantity", `{"quantity": 5}`, http.StatusNotFound},
		{"malformed body", "/api/product/p1/quantity", `{"quantity": `, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store := newTestRouter(t)
			seedProduct(t, store, "p1", "Trail Boots", 1000, 10)

			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateQuantity_BelowReservations(t *testing.T) {
	router, store := newTestRouter(t)
	seedProduct(t, store, "p1", "Trail Boots", 1000, 10)

	// A pending order holds 3 reserved units.
	exp := time.Now().Add(15 * time.Minute)
	order := &models.Order{
		ID: "o1", UserID: "1", Status: models.OrderStatusPending, ExpiresAt: &exp, CreatedAt: time.Now(),
	}
	if err := store.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	line := models.OrderLine{ProductID: "p1", Quantity: 3, PriceAtOrderTime: 1000}
	if err := store.AddOrderLine(context.Background(), "o1", line); err != nil {
		t.Fatalf("seed order line: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/product/p1/quantity", strings.NewReader(`{"quantity": 2}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/product/p1/quantity", strings.NewReader(`{"quantity": 3}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}
