package app

import (
	"context"
	"sync"
	"time"

	"portsync/internal/config"
	"portsync/internal/logger"
	"portsync/internal/reconcile"
)

// scheduler drives periodic full syncs over the configured accounts. An
// interval of zero disables it; the HTTP surface remains the only trigger.
type scheduler struct {
	orchestrator *reconcile.Orchestrator
	accounts     []int64
	lookbackDays int

	mu       sync.Mutex
	interval time.Duration
	wake     chan struct{}
}

func newScheduler(orchestrator *reconcile.Orchestrator, cfg config.SyncConfig) *scheduler {
	return &scheduler{
		orchestrator: orchestrator,
		accounts:     cfg.Accounts,
		lookbackDays: cfg.OrderLookbackDays,
		interval:     time.Duration(cfg.AutoIntervalMin) * time.Minute,
		wake:         make(chan struct{}, 1),
	}
}

func (s *scheduler) setInterval(minutes int) {
	s.mu.Lock()
	s.interval = time.Duration(minutes) * time.Minute
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *scheduler) currentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *scheduler) run(ctx context.Context) {
	if len(s.accounts) == 0 {
		logger.Infof("scheduler: no accounts configured, periodic sync disabled")
		<-ctx.Done()
		return
	}
	for {
		interval := s.currentInterval()
		if interval <= 0 {
			// Disabled until a config reload re-enables it.
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			continue
		case <-time.After(interval):
		}
		for _, accountID := range s.accounts {
			if ctx.Err() != nil {
				return
			}
			if _, err := s.orchestrator.FullSync(ctx, accountID, s.lookbackDays); err != nil {
				logger.Warnf("scheduler: full sync for account %d failed: %v", accountID, err)
			}
		}
	}
}
