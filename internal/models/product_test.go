package models

import "testing"

func TestCurrentPrice(t *testing.T) {
	dynamic := int64(1200)
	tests := []struct {
		name    string
		product Product
		want    int64
	}{
		{"no dynamic price falls back to default", Product{DefaultPrice: 1000}, 1000},
		{"dynamic price wins", Product{DefaultPrice: 1000, DynamicPrice: &dynamic}, 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.product.CurrentPrice(); got != tt.want {
				t.Errorf("CurrentPrice() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOrderLineSubtotal(t *testing.T) {
	line := OrderLine{ProductID: "p1", Quantity: 3, PriceAtOrderTime: 250}
	if got := line.Subtotal(); got != 750 {
		t.Errorf("Subtotal() = %d, want 750", got)
	}
}
