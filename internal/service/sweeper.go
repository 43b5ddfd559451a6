package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSweeperInterval = 10 * time.Minute

// sweeperActor is recorded as the acting identity on audit entries written
// by the sweeper.
const sweeperActor = "system:sweeper"

// FlagSweeperService periodically hard-disables flags that are past their
// expiry. Evaluation already treats expired flags as off; the sweeper keeps
// the configuration table tidy and leaves an audit trail of the transition.
type FlagSweeperService struct {
	flags  *FlagService
	logger *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewFlagSweeperService(flags *FlagService, logger *zap.Logger) *FlagSweeperService {
	return &FlagSweeperService{
		flags:    flags,
		logger:   logger,
		interval: defaultSweeperInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *FlagSweeperService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the sweeper on a periodic schedule in a background goroutine.
func (s *FlagSweeperService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("flag sweeper started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("flag sweeper stopped")
				return
			}
		}
	}()
}

func (s *FlagSweeperService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *FlagSweeperService) run(ctx context.Context) {
	expired, err := s.flags.store.ListExpiredEnabled(ctx)
	if err != nil {
		s.logger.Error("flag sweeper list failed", zap.Error(err))
		return
	}

	for i := range expired {
		f := expired[i]
		f.Enabled = false
		if err := s.flags.Update(ctx, &f, sweeperActor, "expired"); err != nil {
			s.logger.Error("flag sweeper disable failed",
				zap.String("flag", f.Name), zap.Error(err))
			continue
		}
		s.logger.Info("expired flag disabled", zap.String("flag", f.Name))
	}
}
