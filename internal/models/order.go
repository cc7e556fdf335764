package models

import "time"

// OrderStatus is the lifecycle state of an order.
// pending is the only non-terminal state; paid, expired and failed are final.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusExpired OrderStatus = "expired"
	OrderStatusFailed  OrderStatus = "failed"
)

// Order represents a placed order and its reserved inventory claim.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Status     OrderStatus `json:"status"`
	TotalPrice int64       `json:"totalPrice"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
	Lines      []OrderLine `json:"items"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// OrderLine is a single product position on an order. PriceAtOrderTime is
// the product's current price captured when its stock was decremented and
// never changes afterwards.
type OrderLine struct {
	ProductID        string `json:"productId"`
	Quantity         int64  `json:"quantity"`
	PriceAtOrderTime int64  `json:"priceAtOrderTime"`
}

// Subtotal returns the line's contribution to the order total.
func (l OrderLine) Subtotal() int64 {
	return l.Quantity * l.PriceAtOrderTime
}
