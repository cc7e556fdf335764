package models

// CartItem is a single product position in a user's cart.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}
