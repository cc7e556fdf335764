package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomlabs/storefront/internal/repository"
	"github.com/ecomlabs/storefront/internal/service"
)

// CartHandler handles cart-related HTTP requests
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger,
	}
}

// ShowCart handles GET /api/cart
func (h *CartHandler) ShowCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Show(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, view, h.logger)
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), userID(r)); err != nil {
		h.logger.Error("failed to clear cart", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"}, h.logger)
}

// AddItemRequest is the body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode cart item request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	err := h.service.AddItem(r.Context(), userID(r), req.ProductID, req.Quantity)
	if err != nil {
		var insufficientErr *service.InsufficientInventoryError
		switch {
		case errors.Is(err, service.ErrInvalidCartQuantity):
			WriteError(w, http.StatusBadRequest, "Quantity must be positive", h.logger)
		case errors.Is(err, repository.ErrProductNotFound):
			WriteError(w, http.StatusNotFound, "Product not found", h.logger)
		case errors.As(err, &insufficientErr):
			WriteError(w, http.StatusUnprocessableEntity, insufficientErr.Error(), h.logger)
		default:
			h.logger.Error("failed to add cart item", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		}
		return
	}

	view, err := h.service.Show(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, view, h.logger)
}

// RemoveItem handles DELETE /api/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	err := h.service.RemoveItem(r.Context(), userID(r), productID)
	if err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			WriteError(w, http.StatusNotFound, "Cart item not found", h.logger)
			return
		}
		h.logger.Error("failed to remove cart item", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	view, err := h.service.Show(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, view, h.logger)
}
