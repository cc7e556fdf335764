package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecomlabs/storefront/internal/repository"
)

// Sweeper releases the inventory held by pending orders that outlived their
// expiry. It is idempotent: the selection predicate only matches pending
// orders, so an order is compensated exactly once.
type Sweeper struct {
	orders   repository.OrderStore
	products repository.ProductStore
	log      *slog.Logger
	now      func() time.Time
}

// NewSweeper creates an expiration sweeper.
func NewSweeper(orders repository.OrderStore, products repository.ProductStore, log *slog.Logger) *Sweeper {
	return &Sweeper{
		orders:   orders,
		products: products,
		log:      log,
		now:      time.Now,
	}
}

// SweepExpired returns the reservations of all expired pending orders to
// stock and marks the orders expired. It reports how many orders it
// transitioned. Unexpected storage errors propagate so callers can alert.
func (s *Sweeper) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.orders.FindExpiredPending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("find expired orders: %w", err)
	}

	count := 0
	for _, order := range expired {
		for _, line := range order.Lines {
			if err := s.products.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return count, fmt.Errorf("return stock for order %s: %w", order.ID, err)
			}
		}
		changed, err := s.orders.MarkExpired(ctx, order.ID)
		if err != nil {
			return count, fmt.Errorf("mark order %s expired: %w", order.ID, err)
		}
		if changed {
			count++
			s.log.Info("expired order", "order_id", order.ID, "user_id", order.UserID, "lines", len(order.Lines))
		}
	}
	return count, nil
}
