package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartPeriodic runs fn every interval until ctx is cancelled. Errors are
// logged and the loop keeps going. The returned channel closes once the
// loop has stopped.
func StartPeriodic(ctx context.Context, name string, interval time.Duration, logger *zap.Logger, fn func(context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("background worker started", zap.String("worker", name), zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				logger.Info("background worker stopping", zap.String("worker", name))
				return
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Error("background worker run failed", zap.String("worker", name), zap.Error(err))
				}
			}
		}
	}()
	return done
}
