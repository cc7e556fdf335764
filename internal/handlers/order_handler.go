package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomlabs/storefront/internal/repository"
	"github.com/ecomlabs/storefront/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orders *service.OrderService
	carts  repository.CartStore
	logger *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *service.OrderService, carts repository.CartStore, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		carts:  carts,
		logger: logger,
	}
}

// CreateOrder handles POST /api/order. It places an order from the user's
// current cart.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)

	order, err := h.orders.Place(ctx, uid, service.StoreCart(h.carts, uid))
	if err != nil {
		var insufficientErr *service.InsufficientInventoryError
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			WriteError(w, http.StatusUnprocessableEntity, "Cart is empty", h.logger)
		case errors.As(err, &insufficientErr):
			WriteError(w, http.StatusUnprocessableEntity, insufficientErr.Error(), h.logger)
		default:
			h.logger.Error("failed to place order", "user_id", uid, "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, order, h.logger)
}

// ListOrders handles GET /api/order
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, orders, h.logger)
}

// GetOrder handles GET /api/order/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.orders.GetOrder(r.Context(), userID(r), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			WriteError(w, http.StatusNotFound, "Order not found", h.logger)
			return
		}
		h.logger.Error("failed to get order", "orderId", orderID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.logger)
}
