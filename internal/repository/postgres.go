package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomlabs/storefront/internal/models"
)

// PostgresStore implements ProductStore, OrderStore and CartStore on top of
// PostgreSQL. The stock decrement is a single conditional UPDATE, so the
// check-and-subtract happens atomically inside the database regardless of how
// many placements run concurrently.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id                     TEXT PRIMARY KEY,
	name                   TEXT NOT NULL,
	category               TEXT NOT NULL,
	default_price          BIGINT NOT NULL CHECK (default_price >= 0),
	dynamic_price          BIGINT,
	quantity               BIGINT NOT NULL CHECK (quantity >= 0),
	last_demand_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1.0
);

CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	status      TEXT NOT NULL,
	total_price BIGINT NOT NULL DEFAULT 0,
	expires_at  TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS order_lines (
	order_id            TEXT NOT NULL REFERENCES orders(id),
	product_id          TEXT NOT NULL,
	quantity            BIGINT NOT NULL CHECK (quantity > 0),
	price_at_order_time BIGINT NOT NULL,
	position            BIGSERIAL
);

CREATE TABLE IF NOT EXISTS cart_items (
	user_id    TEXT NOT NULL,
	product_id TEXT NOT NULL,
	quantity   BIGINT NOT NULL CHECK (quantity > 0),
	position   BIGSERIAL,
	PRIMARY KEY (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS cart_additions (
	product_id TEXT NOT NULL,
	quantity   BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_orders_status_expires ON orders (status, expires_at);
CREATE INDEX IF NOT EXISTS idx_order_lines_product ON order_lines (product_id);
CREATE INDEX IF NOT EXISTS idx_cart_additions_product ON cart_additions (product_id, created_at);
`

// EnsureSchema creates the tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// --- products ---

func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO products (id, name, category, default_price, dynamic_price, quantity, last_demand_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Name, p.Category, p.DefaultPrice, p.DynamicPrice, p.Quantity, p.LastDemandMultiplier)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, category, default_price, dynamic_price, quantity, last_demand_multiplier
		FROM products
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.DefaultPrice, &p.DynamicPrice, &p.Quantity, &p.LastDemandMultiplier); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.db.QueryRow(ctx, `
		SELECT id, name, category, default_price, dynamic_price, quantity, last_demand_multiplier
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Category, &p.DefaultPrice, &p.DynamicPrice, &p.Quantity, &p.LastDemandMultiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) DecrementStock(ctx context.Context, id string, qty int64) (*models.Product, error) {
	var p models.Product
	err := s.db.QueryRow(ctx, `
		UPDATE products
		SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2
		RETURNING id, name, category, default_price, dynamic_price, quantity, last_demand_multiplier
	`, id, qty).Scan(&p.ID, &p.Name, &p.Category, &p.DefaultPrice, &p.DynamicPrice, &p.Quantity, &p.LastDemandMultiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the product vanished or the stock was short. Distinguish so
		// the placement engine can report availability.
		if _, getErr := s.GetProduct(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInsufficientStock
	}
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) IncrementStock(ctx context.Context, id string, qty int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE products SET quantity = quantity + $2 WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) SetQuantity(ctx context.Context, id string, qty int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE products SET quantity = $2 WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) SetDynamicPrice(ctx context.Context, id string, price int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE products SET dynamic_price = $2 WHERE id = $1
	`, id, price)
	if err != nil {
		return fmt.Errorf("set dynamic price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) SetLastDemandMultiplier(ctx context.Context, id string, m float64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE products SET last_demand_multiplier = $2 WHERE id = $1
	`, id, m)
	if err != nil {
		return fmt.Errorf("set last demand multiplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// --- orders ---

func (s *PostgresStore) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, total_price, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.UserID, o.Status, o.TotalPrice, o.ExpiresAt, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, status, total_price, expires_at, created_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.ExpiresAt, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := s.loadLines(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, status, total_price, expires_at, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.ExpiresAt, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := s.loadLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *PostgresStore) loadLines(ctx context.Context, o *models.Order) error {
	rows, err := s.db.Query(ctx, `
		SELECT product_id, quantity, price_at_order_time
		FROM order_lines WHERE order_id = $1
		ORDER BY position
	`, o.ID)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.PriceAtOrderTime); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, line)
	}
	return rows.Err()
}

func (s *PostgresStore) AddOrderLine(ctx context.Context, orderID string, line models.OrderLine) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_lines (order_id, product_id, quantity, price_at_order_time)
		VALUES ($1, $2, $3, $4)
	`, orderID, line.ProductID, line.Quantity, line.PriceAtOrderTime)
	if err != nil {
		return fmt.Errorf("add order line: %w", err)
	}
	return nil
}

func (s *PostgresStore) FinishOrder(ctx context.Context, orderID string, status models.OrderStatus, total int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, total_price = $3, expires_at = NULL
		WHERE id = $1 AND status = 'pending'
	`, orderID, status, total)
	if err != nil {
		return fmt.Errorf("finish order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s is not pending", orderID)
	}
	return nil
}

func (s *PostgresStore) FindExpiredPending(ctx context.Context, now time.Time) ([]models.Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, status, total_price, expires_at, created_at
		FROM orders
		WHERE status = 'pending' AND expires_at < $1
	`, now)
	if err != nil {
		return nil, fmt.Errorf("find expired orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.ExpiresAt, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := s.loadLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *PostgresStore) MarkExpired(ctx context.Context, orderID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = 'expired', expires_at = NULL
		WHERE id = $1 AND status = 'pending'
	`, orderID)
	if err != nil {
		return false, fmt.Errorf("mark order expired: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) PendingReservedQuantity(ctx context.Context, productID string) (int64, error) {
	var reserved int64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.quantity), 0)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE l.product_id = $1 AND o.status = 'pending'
	`, productID).Scan(&reserved)
	if err != nil {
		return 0, fmt.Errorf("pending reserved quantity: %w", err)
	}
	return reserved, nil
}

func (s *PostgresStore) PurchasedQuantity(ctx context.Context, productID string, from, to time.Time) (int64, error) {
	var purchased int64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.quantity), 0)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE l.product_id = $1 AND o.status = 'paid'
		  AND o.created_at >= $2 AND o.created_at < $3
	`, productID, from, to).Scan(&purchased)
	if err != nil {
		return 0, fmt.Errorf("purchased quantity: %w", err)
	}
	return purchased, nil
}

// --- carts ---

func (s *PostgresStore) CartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT product_id, quantity
		FROM cart_items WHERE user_id = $1
		ORDER BY position
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) AddCartItem(ctx context.Context, userID, productID string, qty int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, userID, productID, qty)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO cart_additions (product_id, quantity) VALUES ($1, $2)
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("record cart addition: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveCartItem(ctx context.Context, userID, productID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (s *PostgresStore) ClearCart(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *PostgresStore) CartAdditionsQuantity(ctx context.Context, productID string, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM cart_additions
		WHERE product_id = $1 AND created_at >= $2 AND created_at < $3
	`, productID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("cart additions quantity: %w", err)
	}
	return total, nil
}
