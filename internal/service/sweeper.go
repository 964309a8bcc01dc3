package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredTokenSweeper deletes expired share tokens.
type ExpiredTokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically removes expired share tokens.
type Sweeper struct {
	target   ExpiredTokenSweeper
	interval time.Duration
	log      *zap.Logger
}

func NewSweeper(target ExpiredTokenSweeper, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{target: target, interval: interval, log: log}
}

// Run sweeps on every tick until ctx is done. Failures are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Debug("share token sweeper started", zap.Duration("tick_every", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("share token sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.target.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("failed to sweep expired share tokens", zap.Error(err))
		}
		return
	}
	if n > 0 {
		s.log.Debug("swept expired share tokens", zap.Int64("count", n))
	}
}
