package models

// Product is the inventory-of-record entry for a catalog item.
// All prices are integers in minor currency units.
type Product struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Category             string  `json:"category"`
	DefaultPrice         int64   `json:"defaultPrice"`
	DynamicPrice         *int64  `json:"dynamicPrice,omitempty"`
	Quantity             int64   `json:"quantity"`
	LastDemandMultiplier float64 `json:"lastDemandMultiplier"`
}

// CurrentPrice returns the dynamic price when one has been computed,
// falling back to the default price.
func (p *Product) CurrentPrice() int64 {
	if p.DynamicPrice != nil {
		return *p.DynamicPrice
	}
	return p.DefaultPrice
}
