package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ecomlabs/storefront/internal/models"
)

const (
	// Final price bounds relative to the default price. These are absolute
	// and applied last, no matter how extreme the multiplier chain became.
	minPriceFactor = 0.8
	maxPriceFactor = 1.5
)

// Ledger is the product access the orchestrator needs.
type Ledger interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	SetDynamicPrice(ctx context.Context, productID string, price int64) error
}

// SnapshotSource fetches competitor prices. Implementations are best-effort;
// errors degrade the pricing run instead of failing it.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) ([]CompetitorPrice, error)
}

// Service composes the demand, inventory and competitor calculators into one
// bounded dynamic price per product.
type Service struct {
	ledger Ledger
	demand *DemandCalculator
	source SnapshotSource
	log    *slog.Logger
	dryRun bool
}

// Option configures a pricing Service.
type Option func(*Service)

// WithSnapshotSource wires a competitor price source into batch runs.
func WithSnapshotSource(source SnapshotSource) Option {
	return func(s *Service) { s.source = source }
}

// WithDryRun computes prices without persisting them.
func WithDryRun() Option {
	return func(s *Service) { s.dryRun = true }
}

// NewService creates a pricing service.
func NewService(ledger Ledger, demand *DemandCalculator, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		ledger: ledger,
		demand: demand,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recompute derives the product's dynamic price from its current price, the
// demand and inventory multipliers and an optional competitor snapshot, then
// clamps it into [80%, 150%] of the default price. The result is persisted
// unless the service runs dry.
func (s *Service) Recompute(ctx context.Context, product *models.Product, snapshot []CompetitorPrice) (int64, error) {
	base := product.CurrentPrice()

	demandMult, err := s.demand.Multiplier(ctx, product)
	if err != nil {
		return 0, fmt.Errorf("demand multiplier for %s: %w", product.ID, err)
	}
	inventoryMult := InventoryMultiplier(product)

	calculated := int64(math.Round(float64(base) * demandMult * inventoryMult))

	adjusted := calculated
	if snapshot != nil {
		adjusted = AdjustForCompetitor(calculated, product.Name, snapshot)
	}

	floor := int64(math.Round(float64(product.DefaultPrice) * minPriceFactor))
	ceiling := int64(math.Round(float64(product.DefaultPrice) * maxPriceFactor))
	final := adjusted
	if final < floor {
		final = floor
	}
	if final > ceiling {
		final = ceiling
	}

	if !s.dryRun {
		if err := s.ledger.SetDynamicPrice(ctx, product.ID, final); err != nil {
			return 0, fmt.Errorf("persist dynamic price for %s: %w", product.ID, err)
		}
	}
	return final, nil
}

// RunBatch recomputes every product's dynamic price. The competitor snapshot
// is fetched once and reused for the whole run; an unavailable source only
// degrades the run. A failure on one product is logged and never stops the
// others. It returns the number of products whose price changed.
func (s *Service) RunBatch(ctx context.Context) (int, error) {
	start := time.Now()
	s.log.Info("starting price update batch")

	var snapshot []CompetitorPrice
	if s.source != nil {
		var err error
		snapshot, err = s.source.FetchSnapshot(ctx)
		if err != nil {
			s.log.Warn("competitor prices unavailable, continuing without adjustment", "error", err)
			snapshot = nil
		}
	}

	products, err := s.ledger.ListProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products for pricing batch: %w", err)
	}

	updated := 0
	for i := range products {
		product := &products[i]
		oldPrice := product.CurrentPrice()

		newPrice, err := s.Recompute(ctx, product, snapshot)
		if err != nil {
			s.log.Error("failed to update price", "product_id", product.ID, "name", product.Name, "error", err)
			continue
		}
		if newPrice != oldPrice {
			updated++
			s.log.Info("updated price", "product_id", product.ID, "name", product.Name, "old", oldPrice, "new", newPrice)
		}
	}

	s.log.Info("price update batch completed",
		"updated", updated,
		"total", len(products),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return updated, nil
}
