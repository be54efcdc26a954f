package tokens

import (
	"context"
	"time"

	"github.com/parlor-chat/parlor/internal/logging"
)

// Sweeper periodically deletes expired token rows. A pass that runs longer
// than the interval is logged; the deletion predicate is evaluated inside
// the storage layer, so a token refreshed mid-pass survives.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   logging.Logger
}

func NewSweeper(service *Service, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	deleted, err := s.service.Sweep(ctx)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Error(ctx, "token sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info(ctx, "token sweep finished", "deleted", deleted, "elapsed", elapsed)
	}
	if elapsed > s.interval {
		s.logger.Warn(ctx, "token sweep ran longer than its interval", "elapsed", elapsed, "interval", s.interval)
	}
}
