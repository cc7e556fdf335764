package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecomlabs/storefront/internal/models"
	"github.com/ecomlabs/storefront/internal/repository"
)

var (
	ErrInvalidQuantity = errors.New("quantity must not be negative")

	// ErrQuantityBelowReserved rejects admin stock updates that would drop
	// the quantity under what pending orders have reserved.
	ErrQuantityBelowReserved = errors.New("quantity cannot be set below pending reservations")
)

// ProductService handles catalog reads and admin stock updates.
type ProductService struct {
	products repository.ProductStore
	orders   repository.OrderStore
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductStore, orders repository.OrderStore) *ProductService {
	return &ProductService{
		products: products,
		orders:   orders,
	}
}

// ListProducts returns all catalog products.
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.ListProducts(ctx)
}

// GetProduct returns a product by ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetProduct(ctx, id)
}

// UpdateQuantity sets a product's stock level, refusing values below the sum
// reserved by pending orders. This check is independent of the placement
// engine's atomic decrement and can race with it; it guards the admin path,
// not the placement path.
func (s *ProductService) UpdateQuantity(ctx context.Context, id string, quantity int64) (*models.Product, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	reserved, err := s.orders.PendingReservedQuantity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("pending reservations for %s: %w", id, err)
	}
	if quantity < reserved {
		return nil, fmt.Errorf("%w: %d units reserved", ErrQuantityBelowReserved, reserved)
	}

	if err := s.products.SetQuantity(ctx, id, quantity); err != nil {
		return nil, err
	}
	return s.products.GetProduct(ctx, id)
}
