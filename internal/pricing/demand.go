package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ecomlabs/storefront/internal/models"
)

// Tier buckets products by current price to select demand-sensitivity
// parameters. Cheaper tiers react faster and swing wider; the premium tier
// barely moves.
type Tier string

const (
	TierLow     Tier = "low"     // 1-1000
	TierMedium  Tier = "medium"  // 1001-3000
	TierHigh    Tier = "high"    // 3001-6000
	TierPremium Tier = "premium" // 6001+
)

// TierFor classifies a price into its tier. Anything outside the three
// bounded ranges, including a non-positive price, falls into premium.
func TierFor(price int64) Tier {
	switch {
	case price >= 1 && price <= 1000:
		return TierLow
	case price >= 1001 && price <= 3000:
		return TierMedium
	case price >= 3001 && price <= 6000:
		return TierHigh
	default:
		return TierPremium
	}
}

type tierWeights struct {
	purchase float64
	cart     float64
}

var weightsByTier = map[Tier]tierWeights{
	TierLow:     {purchase: 0.8, cart: 0.2},
	TierMedium:  {purchase: 0.7, cart: 0.3},
	TierHigh:    {purchase: 0.6, cart: 0.4},
	TierPremium: {purchase: 0.5, cart: 0.5},
}

// band maps weighted growth up to a boundary onto a multiplier. Bands are
// evaluated in order; a band matches when growth < upTo, or growth <= upTo
// for inclusive boundaries. The final band of each tier is an open upper end.
type band struct {
	upTo      float64
	inclusive bool
	mult      float64
}

var bandsByTier = map[Tier][]band{
	TierLow: {
		{upTo: -25, inclusive: true, mult: 0.75},
		{upTo: -10, mult: 0.85},
		{upTo: -3, mult: 0.92},
		{upTo: 3, inclusive: true, mult: 1.0},
		{upTo: 10, mult: 1.08},
		{upTo: 25, mult: 1.20},
		{upTo: 40, mult: 1.35},
		{upTo: math.Inf(1), mult: 1.50},
	},
	TierMedium: {
		{upTo: -30, inclusive: true, mult: 0.80},
		{upTo: -15, mult: 0.90},
		{upTo: -5, mult: 0.95},
		{upTo: 5, inclusive: true, mult: 1.0},
		{upTo: 15, mult: 1.05},
		{upTo: 30, mult: 1.15},
		{upTo: 50, mult: 1.25},
		{upTo: math.Inf(1), mult: 1.35},
	},
	TierHigh: {
		{upTo: -35, inclusive: true, mult: 0.85},
		{upTo: -20, mult: 0.92},
		{upTo: -8, mult: 0.96},
		{upTo: 8, inclusive: true, mult: 1.0},
		{upTo: 20, mult: 1.03},
		{upTo: 35, mult: 1.08},
		{upTo: 60, mult: 1.15},
		{upTo: math.Inf(1), mult: 1.25},
	},
	TierPremium: {
		{upTo: -40, inclusive: true, mult: 0.90},
		{upTo: -25, mult: 0.95},
		{upTo: -10, mult: 0.98},
		{upTo: 10, inclusive: true, mult: 1.0},
		{upTo: 25, mult: 1.02},
		{upTo: 40, mult: 1.05},
		{upTo: 70, mult: 1.10},
		{upTo: math.Inf(1), mult: 1.20},
	},
}

func multiplierForGrowth(tier Tier, growth float64) float64 {
	for _, b := range bandsByTier[tier] {
		if growth < b.upTo || (b.inclusive && growth == b.upTo) {
			return b.mult
		}
	}
	return 1.0
}

const (
	// minWeeklyVolume is the minimum cart-plus-purchase activity in the
	// current week before demand pricing kicks in at all.
	minWeeklyVolume = 10

	// maxMultiplierStep bounds how far the multiplier may move from its
	// previously stored value in a single run.
	maxMultiplierStep = 0.15

	minMultiplier = 0.7
	maxMultiplier = 1.5
)

// DemandStats aggregates one week of demand signal for a product.
type DemandStats struct {
	Purchases     int64
	CartAdditions int64
}

// Total is the combined transaction volume of the week.
func (s DemandStats) Total() int64 {
	return s.Purchases + s.CartAdditions
}

// DemandHistory supplies the weekly purchase and cart-addition sums the
// calculator works from.
type DemandHistory interface {
	PurchasedQuantity(ctx context.Context, productID string, from, to time.Time) (int64, error)
	CartAdditionsQuantity(ctx context.Context, productID string, from, to time.Time) (int64, error)
}

// MultiplierStore persists the smoothed multiplier between runs.
type MultiplierStore interface {
	SetLastDemandMultiplier(ctx context.Context, productID string, m float64) error
}

// DemandCalculator derives a bounded demand multiplier from week-over-week
// growth in purchases and cart additions.
type DemandCalculator struct {
	history DemandHistory
	store   MultiplierStore
	now     func() time.Time
}

// NewDemandCalculator creates a demand calculator reading from history and
// persisting its smoothed result into store.
func NewDemandCalculator(history DemandHistory, store MultiplierStore) *DemandCalculator {
	return &DemandCalculator{
		history: history,
		store:   store,
		now:     time.Now,
	}
}

// Multiplier computes the demand multiplier for a product and persists it as
// the product's new stored multiplier. Products without enough weekly volume
// get a neutral 1.0 and keep their stored state untouched.
func (c *DemandCalculator) Multiplier(ctx context.Context, product *models.Product) (float64, error) {
	weekStart := startOfWeek(c.now())
	current, err := c.weeklyStats(ctx, product.ID, weekStart)
	if err != nil {
		return 0, err
	}
	if current.Total() < minWeeklyVolume {
		return 1.0, nil
	}

	previous, err := c.weeklyStats(ctx, product.ID, weekStart.AddDate(0, 0, -7))
	if err != nil {
		return 0, err
	}

	growth := growthRates(current, previous)
	tier := TierFor(product.CurrentPrice())
	w := weightsByTier[tier]
	weighted := round2(growth.purchases*w.purchase + growth.cartAdditions*w.cart)

	raw := multiplierForGrowth(tier, weighted)
	final := smooth(product.LastDemandMultiplier, raw)

	if err := c.store.SetLastDemandMultiplier(ctx, product.ID, final); err != nil {
		return 0, fmt.Errorf("persist demand multiplier: %w", err)
	}
	return final, nil
}

func (c *DemandCalculator) weeklyStats(ctx context.Context, productID string, weekStart time.Time) (DemandStats, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)

	purchases, err := c.history.PurchasedQuantity(ctx, productID, weekStart, weekEnd)
	if err != nil {
		return DemandStats{}, fmt.Errorf("weekly purchases: %w", err)
	}
	additions, err := c.history.CartAdditionsQuantity(ctx, productID, weekStart, weekEnd)
	if err != nil {
		return DemandStats{}, fmt.Errorf("weekly cart additions: %w", err)
	}
	return DemandStats{Purchases: purchases, CartAdditions: additions}, nil
}

type growth struct {
	purchases     float64
	cartAdditions float64
	total         float64
}

// growthRates computes week-over-week percentage growth per series. A week
// with no previous activity yields 0% growth across the board, so new
// products never divide by zero into extreme multipliers.
func growthRates(current, previous DemandStats) growth {
	if previous.Total() == 0 {
		return growth{}
	}
	return growth{
		purchases:     safeGrowth(current.Purchases, previous.Purchases),
		cartAdditions: safeGrowth(current.CartAdditions, previous.CartAdditions),
		total:         safeGrowth(current.Total(), previous.Total()),
	}
}

func safeGrowth(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return round2(float64(current-previous) / float64(previous) * 100)
}

// smooth limits the step from the previously stored multiplier to
// maxMultiplierStep and clamps the result into the global band.
func smooth(last, next float64) float64 {
	if last == 0 {
		last = 1.0
	}
	change := next - last
	if math.Abs(change) > maxMultiplierStep {
		if change > 0 {
			next = last + maxMultiplierStep
		} else {
			next = last - maxMultiplierStep
		}
	}
	return math.Min(math.Max(next, minMultiplier), maxMultiplier)
}

// startOfWeek truncates t to Monday 00:00 UTC of its ISO week.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
