// Package jobs wires the periodic background work: the expiration sweep on a
// short interval and the pricing batch on a long one. Cadence is deployment
// configuration, not core behavior.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Sweeper is the expiration sweep entrypoint.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// PricingBatch is the dynamic pricing batch entrypoint.
type PricingBatch interface {
	RunBatch(ctx context.Context) (int, error)
}

// Scheduler runs both jobs on their tickers until the context is cancelled.
type Scheduler struct {
	sweeper       Sweeper
	pricing       PricingBatch
	sweepEvery    time.Duration
	pricingEvery  time.Duration
	log           *slog.Logger
	pricingActive atomic.Bool
}

// NewScheduler creates a scheduler for the two periodic jobs.
func NewScheduler(sweeper Sweeper, pricing PricingBatch, sweepEvery, pricingEvery time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:      sweeper,
		pricing:      pricing,
		sweepEvery:   sweepEvery,
		pricingEvery: pricingEvery,
		log:          log,
	}
}

// Run blocks, firing the sweep and pricing jobs on their intervals, until ctx
// is cancelled. The pricing batch is single-flight: a tick that arrives while
// a batch is still running is skipped.
func (s *Scheduler) Run(ctx context.Context) {
	sweepTicker := time.NewTicker(s.sweepEvery)
	defer sweepTicker.Stop()
	pricingTicker := time.NewTicker(s.pricingEvery)
	defer pricingTicker.Stop()

	s.log.Info("scheduler started", "sweep_every", s.sweepEvery.String(), "pricing_every", s.pricingEvery.String())

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-sweepTicker.C:
			count, err := s.sweeper.SweepExpired(ctx)
			if err != nil {
				s.log.Error("expiration sweep failed", "error", err)
				continue
			}
			if count > 0 {
				s.log.Info("expiration sweep finished", "expired", count)
			}
		case <-pricingTicker.C:
			if !s.pricingActive.CompareAndSwap(false, true) {
				s.log.Warn("pricing batch still running, skipping tick")
				continue
			}
			go func() {
				defer s.pricingActive.Store(false)
				if _, err := s.pricing.RunBatch(ctx); err != nil {
					s.log.Error("pricing batch failed", "error", err)
				}
			}()
		}
	}
}
