package token

import (
	"context"
	"time"

	"github.com/AntonTsoy/auth-service/internal/logging"
)

type ExpiredPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically removes refresh-token records past their expiry.
type Sweeper struct {
	store    ExpiredPurger
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewSweeper(store ExpiredPurger, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger.With("component", "token_sweeper"),
		now:      time.Now,
	}
}

// Run sweeps once per interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error(ctx, "expired refresh token sweep failed", "error", err)
		return n, err
	}
	if n > 0 {
		s.logger.Info(ctx, "expired refresh tokens removed", "count", n)
	}
	return n, nil
}
