package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecomlabs/storefront/internal/models"
	"github.com/ecomlabs/storefront/internal/repository"
	"github.com/ecomlabs/storefront/internal/service"
)

// newTestRouter wires the handlers over an in-memory store with the same
// routes the server mounts.
func newTestRouter(t *testing.T) (*chi.Mux, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	productHandler := NewProductHandler(service.NewProductService(store, store), log)
	cartHandler := NewCartHandler(service.NewCartService(store, store), log)
	orderHandler := NewOrderHandler(service.NewOrderService(store, store, 15*time.Minute, log), store, log)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/product", productHandler.ListProducts)
		r.Get("/product/{productId}", productHandler.GetProduct)
		r.Put("/product/{productId}/quantity", productHandler.UpdateQuantity)

		r.Get("/cart", cartHandler.ShowCart)
		r.Delete("/cart", cartHandler.ClearCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)

		r.Post("/order", orderHandler.CreateOrder)
		r.Get("/order", orderHandler.ListOrders)
		r.Get("/order/{orderId}", orderHandler.GetOrder)
	})
	return r, store
}

func seedProduct(t *testing.T, store *repository.MemoryStore, id, name string, price, qty int64) {
	t.Helper()
	err := store.CreateProduct(context.Background(), &models.Product{
		ID:           id,
		Name:         name,
		Category:     "clothing",
		DefaultPrice: price,
		Quantity:     qty,
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
}
