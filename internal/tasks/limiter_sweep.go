package tasks

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper drops per-client state idle for longer than a cutoff. *api.RateLimiter satisfies it.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// LimiterSweep evicts rate limiter entries of clients that stopped sending requests
type LimiterSweep struct {
	sweeper  Sweeper
	idle     time.Duration
	interval time.Duration
}

func NewLimiterSweep(sweeper Sweeper, idle, interval time.Duration) *LimiterSweep {
	return &LimiterSweep{sweeper: sweeper, idle: idle, interval: interval}
}

func (l *LimiterSweep) Run(context.Context) error {
	if n := l.sweeper.Sweep(l.idle); n > 0 {
		slog.Debug("Evicted idle rate limiter clients", "count", n)
	}
	return nil
}

func (l *LimiterSweep) Interval() time.Duration { return l.interval }

func (l *LimiterSweep) Name() string { return "limiter_sweep" }
