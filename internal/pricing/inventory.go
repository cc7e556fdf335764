package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecomlabs/storefront/internal/models"
)

// stockBand maps a stock level up to and including Max onto a multiplier.
// Scarce stock prices up, abundant stock prices down.
type stockBand struct {
	max  int64
	mult float64
}

var stockBands = []stockBand{
	{max: 50, mult: 1.3},
	{max: 100, mult: 1.2},
	{max: 175, mult: 1.1},
	{max: 250, mult: 1.0},
}

const highStockMultiplier = 0.9

var categoryAdjustments = map[string]float64{
	"footwear":    1.05,
	"accessories": 0.95,
	"clothing":    1.0,
}

// InventoryMultiplier derives a price multiplier from the product's stock
// level and category. A product with no stock carries no signal and gets a
// neutral 1.0. The two factors are multiplied in fixed-point arithmetic and
// rounded to two decimal places.
func InventoryMultiplier(p *models.Product) float64 {
	if p.Quantity == 0 {
		return 1.0
	}

	result := decimal.NewFromFloat(quantityMultiplier(p.Quantity)).
		Mul(decimal.NewFromFloat(categoryAdjustment(p.Category))).
		Round(2)
	f, _ := result.Float64()
	return f
}

func quantityMultiplier(quantity int64) float64 {
	for _, b := range stockBands {
		if quantity <= b.max {
			return b.mult
		}
	}
	return highStockMultiplier
}

func categoryAdjustment(category string) float64 {
	if adj, ok := categoryAdjustments[strings.ToLower(category)]; ok {
		return adj
	}
	return 1.0
}
