package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ecomlabs/storefront/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCartItemNotFound = errors.New("cart item not found")

	// ErrInsufficientStock is returned by DecrementStock when the product's
	// quantity is lower than the requested amount. The conditional update
	// leaves the quantity untouched in that case.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductStore defines data access for the product ledger. DecrementStock and
// IncrementStock are the only mutations the order placement path uses, and
// both must be atomic at the storage layer.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)

	// DecrementStock subtracts qty from the product's quantity as a single
	// conditional update that succeeds only when quantity >= qty. It returns
	// the product state captured by that same operation, so the caller can
	// snapshot the price that was current at decrement time.
	DecrementStock(ctx context.Context, id string, qty int64) (*models.Product, error)
	IncrementStock(ctx context.Context, id string, qty int64) error

	SetQuantity(ctx context.Context, id string, qty int64) error
	SetDynamicPrice(ctx context.Context, id string, price int64) error
	SetLastDemandMultiplier(ctx context.Context, id string, m float64) error
}

// OrderStore defines data access for orders and their lines.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)

	// AddOrderLine persists a line immediately so that a crash mid-placement
	// leaves enough state for the expiration sweeper to return the reserved
	// inventory.
	AddOrderLine(ctx context.Context, orderID string, line models.OrderLine) error

	// FinishOrder moves a pending order into a terminal status, sets the
	// total and clears the expiry. It fails if the order already reached a
	// terminal status.
	FinishOrder(ctx context.Context, orderID string, status models.OrderStatus, total int64) error

	FindExpiredPending(ctx context.Context, now time.Time) ([]models.Order, error)

	// MarkExpired transitions a pending order to expired and reports whether
	// the transition happened. Non-pending orders are left untouched.
	MarkExpired(ctx context.Context, orderID string) (bool, error)

	// PendingReservedQuantity sums the line quantities reserved for a product
	// by all orders currently in pending status.
	PendingReservedQuantity(ctx context.Context, productID string) (int64, error)

	// PurchasedQuantity sums the line quantities of paid orders created in
	// [from, to) for a product.
	PurchasedQuantity(ctx context.Context, productID string, from, to time.Time) (int64, error)
}

// CartStore defines data access for per-user carts. Cart additions are also
// recorded as timestamped events so demand statistics survive cart clears.
type CartStore interface {
	CartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	AddCartItem(ctx context.Context, userID, productID string, qty int64) error
	RemoveCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error

	// CartAdditionsQuantity sums the quantities added to carts in [from, to)
	// for a product.
	CartAdditionsQuantity(ctx context.Context, productID string, from, to time.Time) (int64, error)
}
