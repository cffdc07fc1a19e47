package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prohmpiriya/storefront/internal/domain"
)

// countingOrderRepository counts AdvanceTracking calls
type countingOrderRepository struct {
	ticks     int32
	batchSize int32
}

func (r *countingOrderRepository) Checkout(ctx context.Context, principalID string, order *domain.Order) (*domain.Order, error) {
	return nil, nil
}

func (r *countingOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (r *countingOrderRepository) ListByPrincipal(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error) {
	return nil, nil
}

func (r *countingOrderRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	return nil, nil
}

func (r *countingOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	return nil
}

func (r *countingOrderRepository) AdvanceTracking(ctx context.Context, batchSize int) (int64, error) {
	atomic.AddInt32(&r.ticks, 1)
	atomic.StoreInt32(&r.batchSize, int32(batchSize))
	return 1, nil
}

func TestTrackingWorker_TicksAndStops(t *testing.T) {
	repo := &countingOrderRepository{}
	w := NewTrackingWorker(repo, &TrackingWorkerConfig{
		AdvanceInterval: 10 * time.Millisecond,
		BatchSize:       7,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)

	// Let a few ticks land
	time.Sleep(55 * time.Millisecond)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	ticks := atomic.LoadInt32(&repo.ticks)
	if ticks < 2 {
		t.Errorf("ticks = %d, want at least 2", ticks)
	}
	if got := atomic.LoadInt32(&repo.batchSize); got != 7 {
		t.Errorf("batch size = %d, want 7", got)
	}

	// No further ticks after shutdown
	time.Sleep(30 * time.Millisecond)
	if after := atomic.LoadInt32(&repo.ticks); after != ticks {
		t.Errorf("ticks after stop = %d, want %d", after, ticks)
	}
}

func TestTrackingWorker_Defaults(t *testing.T) {
	w := NewTrackingWorker(&countingOrderRepository{}, &TrackingWorkerConfig{})

	if w.config.AdvanceInterval != 30*time.Second {
		t.Errorf("AdvanceInterval = %v, want 30s", w.config.AdvanceInterval)
	}
	if w.config.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", w.config.BatchSize)
	}
}
