package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/storefront/internal/repository"
	"github.com/prohmpiriya/storefront/pkg/logger"
)

// TrackingWorkerConfig holds configuration for the tracking worker
type TrackingWorkerConfig struct {
	// AdvanceInterval is how often tracking legs move forward
	AdvanceInterval time.Duration
	// BatchSize caps how many orders advance per tick
	BatchSize int
}

// TrackingWorker periodically advances shipment tracking legs: the
// in-progress leg completes and the next pending leg starts. Tracking
// is a display-only simulation; the worker never touches order status.
type TrackingWorker struct {
	orderRepo repository.OrderRepository
	config    *TrackingWorkerConfig
	done      chan struct{}
}

// NewTrackingWorker creates a new TrackingWorker
func NewTrackingWorker(orderRepo repository.OrderRepository, config *TrackingWorkerConfig) *TrackingWorker {
	if config.AdvanceInterval == 0 {
		config.AdvanceInterval = 30 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	return &TrackingWorker{
		orderRepo: orderRepo,
		config:    config,
		done:      make(chan struct{}),
	}
}

// Start runs the advancement loop until the context is cancelled
func (w *TrackingWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.AdvanceInterval)
	defer ticker.Stop()
	defer close(w.done)

	logger.Get().Info("tracking worker started",
		zap.Duration("interval", w.config.AdvanceInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Get().Info("tracking worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// Done is closed once the worker has fully stopped
func (w *TrackingWorker) Done() <-chan struct{} {
	return w.done
}

func (w *TrackingWorker) tick(ctx context.Context) {
	advanced, err := w.orderRepo.AdvanceTracking(ctx, w.config.BatchSize)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Get().Error("failed to advance tracking", zap.Error(err))
		return
	}
	if advanced > 0 {
		logger.Get().Debug("advanced tracking points", zap.Int64("count", advanced))
	}
}
