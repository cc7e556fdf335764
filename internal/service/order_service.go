package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ecomlabs/storefront/internal/models"
	"github.com/ecomlabs/storefront/internal/repository"
)

var (
	ErrEmptyCart     = errors.New("cart must contain at least one item")
	ErrOrderNotFound = errors.New("order not found")
)

// InsufficientInventoryError reports the product that could not cover a
// requested quantity. Placements failing with it were fully compensated.
type InsufficientInventoryError struct {
	ProductName string
	Available   int64
	Requested   int64
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("not enough inventory for %s: available %d, requested %d", e.ProductName, e.Available, e.Requested)
}

// Cart is the collaborator a placement reads its lines from. Clear is called
// only after a fully successful placement.
type Cart interface {
	Lines(ctx context.Context) ([]models.CartItem, error)
	Clear(ctx context.Context) error
}

// StoreCart adapts a user's persisted cart to the Cart contract.
func StoreCart(store repository.CartStore, userID string) Cart {
	return storeCart{store: store, userID: userID}
}

type storeCart struct {
	store  repository.CartStore
	userID string
}

func (c storeCart) Lines(ctx context.Context) ([]models.CartItem, error) {
	return c.store.CartItems(ctx, c.userID)
}

func (c storeCart) Clear(ctx context.Context) error {
	return c.store.ClearCart(ctx, c.userID)
}

// OrderService converts carts into orders. It is the only component that
// decrements inventory, and it compensates its own decrements on any failure.
type OrderService struct {
	products   repository.ProductStore
	orders     repository.OrderStore
	log        *slog.Logger
	pendingTTL time.Duration
	now        func() time.Time
}

// NewOrderService creates an order service. pendingTTL is how long a pending
// order may hold its reservation before the sweeper returns it.
func NewOrderService(products repository.ProductStore, orders repository.OrderStore, pendingTTL time.Duration, log *slog.Logger) *OrderService {
	return &OrderService{
		products:   products,
		orders:     orders,
		log:        log,
		pendingTTL: pendingTTL,
		now:        time.Now,
	}
}

// Place converts the cart into an order. The order is persisted pending
// before any stock moves, so a crash mid-placement is recoverable by the
// expiration sweeper. Each cart line is reserved with one atomic conditional
// decrement against the ledger; the first failure rolls back every prior
// decrement, marks the order failed and surfaces the cause. On success the
// order is paid, totals reflect the prices captured at decrement time and the
// cart is cleared.
func (s *OrderService) Place(ctx context.Context, userID string, cart Cart) (*models.Order, error) {
	items, err := cart.Lines(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	expiresAt := now.Add(s.pendingTTL)
	order := &models.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    models.OrderStatusPending,
		ExpiresAt: &expiresAt,
		CreatedAt: now,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var (
		committed []models.OrderLine
		total     int64
	)
	for _, item := range items {
		product, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.compensate(ctx, order.ID, committed)
			return nil, s.placementError(ctx, item, err)
		}

		line := models.OrderLine{
			ProductID:        item.ProductID,
			Quantity:         item.Quantity,
			PriceAtOrderTime: product.CurrentPrice(),
		}
		committed = append(committed, line)

		if err := s.orders.AddOrderLine(ctx, order.ID, line); err != nil {
			s.compensate(ctx, order.ID, committed)
			return nil, fmt.Errorf("persist order line: %w", err)
		}
		total += line.Subtotal()
	}

	if err := s.orders.FinishOrder(ctx, order.ID, models.OrderStatusPaid, total); err != nil {
		s.compensate(ctx, order.ID, committed)
		return nil, fmt.Errorf("finish order: %w", err)
	}

	order.Status = models.OrderStatusPaid
	order.TotalPrice = total
	order.ExpiresAt = nil
	order.Lines = committed

	// The order is terminal at this point; a cart that fails to clear is an
	// inconvenience, not a reason to unwind the placement.
	if err := cart.Clear(ctx); err != nil {
		s.log.Error("failed to clear cart after placement", "order_id", order.ID, "user_id", userID, "error", err)
	}

	s.log.Info("order placed", "order_id", order.ID, "user_id", userID, "total", total, "lines", len(committed))
	return order, nil
}

// placementError converts a failed decrement into the error surfaced to the
// caller. A product that vanished between cart add and placement reads as
// insufficient inventory.
func (s *OrderService) placementError(ctx context.Context, item models.CartItem, err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		name := item.ProductID
		var available int64
		if p, getErr := s.products.GetProduct(ctx, item.ProductID); getErr == nil {
			name = p.Name
			available = p.Quantity
		}
		return &InsufficientInventoryError{ProductName: name, Available: available, Requested: item.Quantity}
	case errors.Is(err, repository.ErrProductNotFound):
		return &InsufficientInventoryError{ProductName: item.ProductID, Available: 0, Requested: item.Quantity}
	default:
		return fmt.Errorf("reserve stock for %s: %w", item.ProductID, err)
	}
}

// compensate re-increments every already-decremented line and marks the order
// failed. Each increment is atomic on its own; compensation failures are
// logged and skipped so the remaining lines still get returned.
func (s *OrderService) compensate(ctx context.Context, orderID string, committed []models.OrderLine) {
	for _, line := range committed {
		if err := s.products.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.log.Error("failed to return stock during rollback",
				"order_id", orderID, "product_id", line.ProductID, "quantity", line.Quantity, "error", err)
		}
	}
	if err := s.orders.FinishOrder(ctx, orderID, models.OrderStatusFailed, 0); err != nil {
		s.log.Error("failed to mark order failed", "order_id", orderID, "error", err)
	}
}

// GetOrder returns one of the user's orders.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}
