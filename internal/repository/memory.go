package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ecomlabs/storefront/internal/models"
)

// MemoryStore implements ProductStore, OrderStore and CartStore with
// in-memory storage. All operations run under a single mutex, which makes
// the conditional stock decrement atomic with respect to concurrent
// placements.
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[string]*models.Product
	orders    map[string]*models.Order
	carts     map[string][]models.CartItem
	additions []cartAddition

	now func() time.Time
}

type cartAddition struct {
	productID string
	quantity  int64
	at        time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*models.Product),
		orders:   make(map[string]*models.Order),
		carts:    make(map[string][]models.CartItem),
		now:      time.Now,
	}
}

// --- products ---

func (s *MemoryStore) CreateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, *p)
	}
	return products, nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) DecrementStock(ctx context.Context, id string, qty int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	if p.Quantity < qty {
		return nil, ErrInsufficientStock
	}
	p.Quantity -= qty
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) IncrementStock(ctx context.Context, id string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return ErrProductNotFound
	}
	p.Quantity += qty
	return nil
}

func (s *MemoryStore) SetQuantity(ctx context.Context, id string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return ErrProductNotFound
	}
	p.Quantity = qty
	return nil
}

func (s *MemoryStore) SetDynamicPrice(ctx context.Context, id string, price int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return ErrProductNotFound
	}
	p.DynamicPrice = &price
	return nil
}

func (s *MemoryStore) SetLastDemandMultiplier(ctx context.Context, id string, m float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return ErrProductNotFound
	}
	p.LastDemandMultiplier = m
	return nil
}

// --- orders ---

func (s *MemoryStore) CreateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (s *MemoryStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			orders = append(orders, *copyOrder(o))
		}
	}
	// newest first
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *MemoryStore) AddOrderLine(ctx context.Context, orderID string, line models.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.orders[orderID]
	if !exists {
		return ErrOrderNotFound
	}
	o.Lines = append(o.Lines, line)
	return nil
}

func (s *MemoryStore) FinishOrder(ctx context.Context, orderID string, status models.OrderStatus, total int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.orders[orderID]
	if !exists {
		return ErrOrderNotFound
	}
	if o.Status != models.OrderStatusPending {
		return fmt.Errorf("order %s is already %s", orderID, o.Status)
	}
	o.Status = status
	o.TotalPrice = total
	o.ExpiresAt = nil
	return nil
}

func (s *MemoryStore) FindExpiredPending(ctx context.Context, now time.Time) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []models.Order
	for _, o := range s.orders {
		if o.Status == models.OrderStatusPending && o.ExpiresAt != nil && o.ExpiresAt.Before(now) {
			expired = append(expired, *copyOrder(o))
		}
	}
	return expired, nil
}

func (s *MemoryStore) MarkExpired(ctx context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.orders[orderID]
	if !exists {
		return false, ErrOrderNotFound
	}
	if o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusExpired
	o.ExpiresAt = nil
	return true, nil
}

func (s *MemoryStore) PendingReservedQuantity(ctx context.Context, productID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reserved int64
	for _, o := range s.orders {
		if o.Status != models.OrderStatusPending {
			continue
		}
		for _, line := range o.Lines {
			if line.ProductID == productID {
				reserved += line.Quantity
			}
		}
	}
	return reserved, nil
}

func (s *MemoryStore) PurchasedQuantity(ctx context.Context, productID string, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var purchased int64
	for _, o := range s.orders {
		if o.Status != models.OrderStatusPaid {
			continue
		}
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		for _, line := range o.Lines {
			if line.ProductID == productID {
				purchased += line.Quantity
			}
		}
	}
	return purchased, nil
}

// --- carts ---

func (s *MemoryStore) CartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.carts[userID]
	out := make([]models.CartItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *MemoryStore) AddCartItem(ctx context.Context, userID, productID string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	merged := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, models.CartItem{ProductID: productID, Quantity: qty})
	}
	s.carts[userID] = items
	s.additions = append(s.additions, cartAddition{productID: productID, quantity: qty, at: s.now()})
	return nil
}

func (s *MemoryStore) RemoveCartItem(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrCartItemNotFound
}

func (s *MemoryStore) ClearCart(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}

func (s *MemoryStore) CartAdditionsQuantity(ctx context.Context, productID string, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, a := range s.additions {
		if a.productID != productID {
			continue
		}
		if a.at.Before(from) || !a.at.Before(to) {
			continue
		}
		total += a.quantity
	}
	return total, nil
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	if o.ExpiresAt != nil {
		exp := *o.ExpiresAt
		cp.ExpiresAt = &exp
	}
	cp.Lines = make([]models.OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	return &cp
}
