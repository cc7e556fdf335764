package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) SweepExpired(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return 0, nil
}

type slowBatch struct {
	calls atomic.Int32
	block time.Duration
}

func (b *slowBatch) RunBatch(ctx context.Context) (int, error) {
	b.calls.Add(1)
	time.Sleep(b.block)
	return 0, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_FiresBothJobs(t *testing.T) {
	sweeper := &countingSweeper{}
	batch := &slowBatch{}
	s := NewScheduler(sweeper, batch, 10*time.Millisecond, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if sweeper.calls.Load() == 0 {
		t.Error("expected at least one sweep")
	}
	if batch.calls.Load() == 0 {
		t.Error("expected at least one pricing batch")
	}
}

func TestScheduler_PricingBatchIsSingleFlight(t *testing.T) {
	sweeper := &countingSweeper{}
	// One batch outlives the whole test window, so every later tick must be
	// skipped rather than stacked.
	batch := &slowBatch{block: time.Second}
	s := NewScheduler(sweeper, batch, time.Hour, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if got := batch.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 pricing batch, got %d", got)
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, &slowBatch{}, time.Hour, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
