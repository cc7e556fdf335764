package service

import (
	"context"
	"errors"

	"github.com/ecomlabs/storefront/internal/repository"
)

var ErrInvalidCartQuantity = errors.New("quantity must be positive")

// CartView is a cart rendered with current prices.
type CartView struct {
	Items      []CartViewItem `json:"items"`
	TotalPrice int64          `json:"totalPrice"`
}

// CartViewItem is one cart line with its product's current price.
type CartViewItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// CartService manages per-user carts.
type CartService struct {
	carts    repository.CartStore
	products repository.ProductStore
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartStore, products repository.ProductStore) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
	}
}

// Show renders the user's cart with current prices. Lines whose product
// vanished are skipped.
func (s *CartService) Show(ctx context.Context, userID string) (*CartView, error) {
	items, err := s.carts.CartItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: []CartViewItem{}}
	for _, item := range items {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		price := product.CurrentPrice()
		view.Items = append(view.Items, CartViewItem{
			ProductID: item.ProductID,
			Name:      product.Name,
			Price:     price,
			Quantity:  item.Quantity,
			Subtotal:  item.Quantity * price,
		})
		view.TotalPrice += item.Quantity * price
	}
	return view, nil
}

// AddItem merges qty of a product into the user's cart. The stock check here
// is advisory only; the placement engine re-checks atomically when the order
// is placed.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int64) error {
	if qty <= 0 {
		return ErrInvalidCartQuantity
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.Quantity < qty {
		return &InsufficientInventoryError{ProductName: product.Name, Available: product.Quantity, Requested: qty}
	}

	return s.carts.AddCartItem(ctx, userID, productID, qty)
}

// RemoveItem removes a product from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) error {
	return s.carts.RemoveCartItem(ctx, userID, productID)
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.carts.ClearCart(ctx, userID)
}
