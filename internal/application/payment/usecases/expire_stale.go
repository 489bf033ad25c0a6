package usecases

import (
	"context"

	"keygate/internal/domain/payment"
	"keygate/internal/shared/logger"
)

// ExpireStaleUseCase sweeps pending payments past their staleness window into
// the expired state so the poller stops asking the provider about them.
type ExpireStaleUseCase struct {
	paymentRepo payment.PaymentRepository
	logger      logger.Interface
}

func NewExpireStaleUseCase(paymentRepo payment.PaymentRepository, logger logger.Interface) *ExpireStaleUseCase {
	return &ExpireStaleUseCase{
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// Execute expires every stale pending payment. Returns the number expired.
// The pending -> expired flip goes through the same conditional gate as the
// approval paths, so a payment the webhook or poller approved between the
// sweep's read and write is left alone.
func (uc *ExpireStaleUseCase) Execute(ctx context.Context) (int, error) {
	stale, err := uc.paymentRepo.ListStalePending(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range stale {
		won, err := uc.paymentRepo.MarkExpiredIfPending(ctx, p.ExternalReference())
		if err != nil {
			uc.logger.Warnw("failed to expire payment",
				"external_reference", p.ExternalReference(),
				"error", err,
			)
			continue
		}
		if !won {
			uc.logger.Debugw("payment left pending before the sweep wrote, skipping",
				"external_reference", p.ExternalReference(),
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		uc.logger.Infow("expired stale payments", "count", expired)
	}
	return expired, nil
}
