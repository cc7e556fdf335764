package pricing

import (
	"math"
	"strings"
)

// CompetitorPrice is one entry of a competitor price snapshot.
type CompetitorPrice struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

const (
	// overpricedThresholdPct is the percent difference above a competitor's
	// price beyond which we chase it down.
	overpricedThresholdPct = 10
	// underpricedThresholdPct is the percent difference below a competitor's
	// price beyond which we raise toward it.
	underpricedThresholdPct = -5

	// maxCompetitorDiscount caps how far a competitor match may pull the
	// price below what we calculated ourselves.
	maxCompetitorDiscount = 0.8
)

// AdjustForCompetitor nudges ourPrice toward a competitor's price for the
// same product. Without a snapshot, a matching product or a positive
// competitor price, the input is returned unchanged.
func AdjustForCompetitor(ourPrice int64, productName string, snapshot []CompetitorPrice) int64 {
	competitor, ok := findCompetitor(productName, snapshot)
	if !ok || competitor.Price <= 0 {
		return ourPrice
	}

	percentDiff := round2(float64(ourPrice-competitor.Price) / float64(competitor.Price) * 100)

	switch {
	case percentDiff > overpricedThresholdPct:
		// Overpriced: target the competitor, never more than 20% below our
		// own calculated price.
		return int64(math.Max(float64(competitor.Price), float64(ourPrice)*maxCompetitorDiscount))
	case percentDiff < underpricedThresholdPct:
		// Underpriced: raise, staying below the competitor.
		return int64(math.Min(float64(ourPrice)*1.05, float64(competitor.Price)*0.95))
	default:
		return ourPrice
	}
}

func findCompetitor(productName string, snapshot []CompetitorPrice) (CompetitorPrice, bool) {
	for _, c := range snapshot {
		if strings.EqualFold(c.Name, productName) {
			return c, true
		}
	}
	return CompetitorPrice{}, false
}
