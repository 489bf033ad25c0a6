package scheduler

import (
	"context"
	"sync"
	"time"

	paymentUsecases "keygate/internal/application/payment/usecases"
	"keygate/internal/shared/config"
	"keygate/internal/shared/goroutine"
	"keygate/internal/shared/logger"
)

// PaymentScheduler owns the reconciliation background loops:
//   - a poll loop that queries the provider for every pending payment and
//     feeds the results through reconciliation, covering webhooks that were
//     lost or arrived before we could process them
//   - a sweep loop that expires pending payments older than the staleness
//     window so the poller's working set stays bounded
type PaymentScheduler struct {
	pollUC        *paymentUsecases.PollPendingUseCase
	expireStaleUC *paymentUsecases.ExpireStaleUseCase
	logger        logger.Interface
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
	pollInterval  time.Duration
	sweepInterval time.Duration
}

func NewPaymentScheduler(
	pollUC *paymentUsecases.PollPendingUseCase,
	expireStaleUC *paymentUsecases.ExpireStaleUseCase,
	cfg config.PaymentConfig,
	logger logger.Interface,
) *PaymentScheduler {
	pollInterval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	sweepInterval := time.Duration(cfg.SweepIntervalMinutes) * time.Minute
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}

	return &PaymentScheduler{
		pollUC:        pollUC,
		expireStaleUC: expireStaleUC,
		logger:        logger,
		stopChan:      make(chan struct{}),
		pollInterval:  pollInterval,
		sweepInterval: sweepInterval,
	}
}

// Start launches the poll and sweep loops and returns immediately.
func (s *PaymentScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting payment scheduler",
		"poll_interval", s.pollInterval,
		"sweep_interval", s.sweepInterval,
	)

	s.wg.Add(2)
	goroutine.SafeGo(s.logger, "payment-poll", func() {
		defer s.wg.Done()
		s.runPollLoop(ctx)
	})
	goroutine.SafeGo(s.logger, "payment-sweep", func() {
		defer s.wg.Done()
		s.runSweepLoop(ctx)
	})
}

// Stop shuts the loops down and waits for them to finish. Safe to call
// more than once.
func (s *PaymentScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping payment scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("payment scheduler stopped")
	})
}

func (s *PaymentScheduler) runPollLoop(ctx context.Context) {
	// Run immediately so a restart catches up on missed webhooks right away.
	s.pollPending(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("poll loop stopped due to context cancellation")
			return
		case <-s.stopChan:
			s.logger.Infow("poll loop stopped")
			return
		case <-ticker.C:
			s.pollPending(ctx)
		}
	}
}

func (s *PaymentScheduler) runSweepLoop(ctx context.Context) {
	s.sweepStale(ctx)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("sweep loop stopped due to context cancellation")
			return
		case <-s.stopChan:
			s.logger.Infow("sweep loop stopped")
			return
		case <-ticker.C:
			s.sweepStale(ctx)
		}
	}
}

// Each tick is bounded by its own interval so a hung provider call cannot
// stall the loop past the next tick.
func (s *PaymentScheduler) pollPending(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.pollInterval)
	defer cancel()

	startTime := time.Now()

	if err := s.pollUC.Execute(ctx); err != nil {
		s.logger.Errorw("pending payment poll failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	s.logger.Debugw("pending payment poll completed",
		"duration", time.Since(startTime),
	)
}

func (s *PaymentScheduler) sweepStale(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.sweepInterval)
	defer cancel()

	startTime := time.Now()

	expiredCount, err := s.expireStaleUC.Execute(ctx)
	if err != nil {
		s.logger.Errorw("stale payment sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if expiredCount > 0 {
		s.logger.Infow("stale payments expired",
			"count", expiredCount,
			"duration", time.Since(startTime),
		)
	}
}
