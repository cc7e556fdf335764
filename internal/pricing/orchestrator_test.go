package pricing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomlabs/storefront/internal/models"
)

type fakeLedger struct {
	products []models.Product
	prices   map[string]int64
	failID   string
}

func (f *fakeLedger) ListProducts(ctx context.Context) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeLedger) SetDynamicPrice(ctx context.Context, productID string, price int64) error {
	if productID == f.failID {
		return errors.New("boom")
	}
	if f.prices == nil {
		f.prices = make(map[string]int64)
	}
	f.prices[productID] = price
	return nil
}

type fakeSource struct {
	snapshot []CompetitorPrice
	err      error
	calls    int
}

func (f *fakeSource) FetchSnapshot(ctx context.Context) ([]CompetitorPrice, error) {
	f.calls++
	return f.snapshot, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// quietDemand has too little weekly volume to move the multiplier off 1.0.
func quietDemand() *DemandCalculator {
	c := NewDemandCalculator(&fakeHistory{}, &fakeMultiplierStore{})
	c.now = func() time.Time { return testNow }
	return c
}

func demandWithGrowth(curPurchases, prevPurchases, curCart, prevCart int64) *DemandCalculator {
	cur, prev := testWeeks()
	history := &fakeHistory{
		purchases: map[time.Time]int64{cur: curPurchases, prev: prevPurchases},
		cartAdds:  map[time.Time]int64{cur: curCart, prev: prevCart},
	}
	c := NewDemandCalculator(history, &fakeMultiplierStore{})
	c.now = func() time.Time { return testNow }
	return c
}

func TestRecompute_WithinBounds(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(ledger, quietDemand(), discardLogger())

	product := &models.Product{
		ID:           "p1",
		Name:         "Trail Boots",
		Category:     "footwear",
		DefaultPrice: 1000,
		Quantity:     30,
	}

	// Neutral demand, scarce footwear stock: 1000 * 1.0 * 1.37 = 1370.
	price, err := svc.Recompute(context.Background(), product, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1370), price)
	assert.Equal(t, int64(1370), ledger.prices["p1"])
}

func TestRecompute_ClampedToCeiling(t *testing.T) {
	ledger := &fakeLedger{}
	// Both signals doubled week over week: weighted growth 100, raw band
	// 1.50, and the stored multiplier already sits there.
	svc := NewService(ledger, demandWithGrowth(200, 100, 100, 50), discardLogger())

	product := &models.Product{
		ID:                   "p1",
		Name:                 "Trail Boots",
		Category:             "footwear",
		DefaultPrice:         1000,
		Quantity:             30,
		LastDemandMultiplier: 1.5,
	}

	// 1000 * 1.5 * 1.37 = 2055, clamped to 150% of the default price.
	price, err := svc.Recompute(context.Background(), product, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), price)
	assert.Equal(t, int64(1500), ledger.prices["p1"])
}

func TestRecompute_ClampedToFloor(t *testing.T) {
	ledger := &fakeLedger{}
	// Both signals down 30%: low tier band 0.75, reachable from 0.7.
	svc := NewService(ledger, demandWithGrowth(70, 100, 35, 50), discardLogger())

	product := &models.Product{
		ID:                   "p1",
		Name:                 "Sun Hat",
		Category:             "accessories",
		DefaultPrice:         1000,
		Quantity:             300,
		LastDemandMultiplier: 0.7,
	}

	// 1000 * 0.75 * 0.86 = 645, clamped to 80% of the default price.
	price, err := svc.Recompute(context.Background(), product, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(800), price)
}

func TestRecompute_CompetitorAdjustment(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(ledger, quietDemand(), discardLogger())

	product := &models.Product{
		ID:           "p1",
		Name:         "Trail Boots",
		Category:     "clothing",
		DefaultPrice: 1000,
		Quantity:     30,
	}
	snapshot := []CompetitorPrice{{Name: "Trail Boots", Price: 1000}}

	// Calculated 1300 is 30% over the competitor; chase down to
	// max(1000, 1300*0.8) = 1040, still inside the default-price bounds.
	price, err := svc.Recompute(context.Background(), product, snapshot)
	require.NoError(t, err)
	assert.Equal(t, int64(1040), price)
}

func TestRecompute_DryRun(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(ledger, quietDemand(), discardLogger(), WithDryRun())

	product := &models.Product{
		ID:           "p1",
		Name:         "Trail Boots",
		Category:     "footwear",
		DefaultPrice: 1000,
		Quantity:     30,
	}

	price, err := svc.Recompute(context.Background(), product, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1370), price)
	assert.Empty(t, ledger.prices)
}

func TestRunBatch_SnapshotFetchedOnce(t *testing.T) {
	ledger := &fakeLedger{
		products: []models.Product{
			{ID: "p1", Name: "A", Category: "clothing", DefaultPrice: 1000, Quantity: 30},
			{ID: "p2", Name: "B", Category: "clothing", DefaultPrice: 2000, Quantity: 30},
			{ID: "p3", Name: "C", Category: "clothing", DefaultPrice: 3000, Quantity: 30},
		},
	}
	source := &fakeSource{}
	svc := NewService(ledger, quietDemand(), discardLogger(), WithSnapshotSource(source))

	updated, err := svc.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 3, updated)
	assert.Len(t, ledger.prices, 3)
}

func TestRunBatch_IsolatesFailures(t *testing.T) {
	ledger := &fakeLedger{
		products: []models.Product{
			{ID: "p1", Name: "A", Category: "clothing", DefaultPrice: 1000, Quantity: 30},
			{ID: "p2", Name: "B", Category: "clothing", DefaultPrice: 2000, Quantity: 30},
		},
		failID: "p1",
	}
	svc := NewService(ledger, quietDemand(), discardLogger())

	// p1's persist fails but p2 still gets its price.
	updated, err := svc.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, int64(2600), ledger.prices["p2"])
	assert.NotContains(t, ledger.prices, "p1")
}

func TestRunBatch_DegradesWithoutSnapshot(t *testing.T) {
	ledger := &fakeLedger{
		products: []models.Product{
			{ID: "p1", Name: "A", Category: "clothing", DefaultPrice: 1000, Quantity: 30},
		},
	}
	source := &fakeSource{err: errors.New("upstream down")}
	svc := NewService(ledger, quietDemand(), discardLogger(), WithSnapshotSource(source))

	updated, err := svc.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, int64(1300), ledger.prices["p1"])
}
