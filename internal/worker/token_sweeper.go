package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/storefront/internal/repository"
	"github.com/prohmpiriya/storefront/pkg/logger"
)

// TokenSweeperConfig holds configuration for the token sweeper
type TokenSweeperConfig struct {
	// SweepInterval is how often expired refresh tokens are purged
	SweepInterval time.Duration
}

// TokenSweeper periodically deletes refresh tokens past their expiry.
// Expired tokens are already rejected at refresh time; the sweeper only
// keeps the table from growing without bound.
type TokenSweeper struct {
	tokenRepo repository.RefreshTokenRepository
	config    *TokenSweeperConfig
	done      chan struct{}
}

// NewTokenSweeper creates a new TokenSweeper
func NewTokenSweeper(tokenRepo repository.RefreshTokenRepository, config *TokenSweeperConfig) *TokenSweeper {
	if config.SweepInterval == 0 {
		config.SweepInterval = time.Hour
	}
	return &TokenSweeper{
		tokenRepo: tokenRepo,
		config:    config,
		done:      make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled
func (w *TokenSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()
	defer close(w.done)

	logger.Get().Info("token sweeper started",
		zap.Duration("interval", w.config.SweepInterval),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Get().Info("token sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Done is closed once the sweeper has fully stopped
func (w *TokenSweeper) Done() <-chan struct{} {
	return w.done
}

func (w *TokenSweeper) sweep(ctx context.Context) {
	deleted, err := w.tokenRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Get().Error("failed to delete expired refresh tokens", zap.Error(err))
		return
	}
	if deleted > 0 {
		logger.Get().Debug("deleted expired refresh tokens", zap.Int64("count", deleted))
	}
}
