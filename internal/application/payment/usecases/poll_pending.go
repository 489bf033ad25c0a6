package usecases

import (
	"context"

	"keygate/internal/application/payment/paymentgateway"
	"keygate/internal/domain/payment"
	"keygate/internal/shared/logger"
)

// PollPendingUseCase is the reconciliation safety net for lost webhooks: it
// asks the provider for the status of every pending payment and feeds the
// answers through the same gate the webhook uses.
type PollPendingUseCase struct {
	paymentRepo payment.PaymentRepository
	gateway     paymentgateway.PaymentGateway
	reconcile   *ReconcilePaymentUseCase
	logger      logger.Interface
}

func NewPollPendingUseCase(
	paymentRepo payment.PaymentRepository,
	gateway paymentgateway.PaymentGateway,
	reconcile *ReconcilePaymentUseCase,
	logger logger.Interface,
) *PollPendingUseCase {
	return &PollPendingUseCase{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		reconcile:   reconcile,
		logger:      logger,
	}
}

// Execute polls every pending payment once. Provider errors are logged and
// skipped; the next tick retries them.
func (uc *PollPendingUseCase) Execute(ctx context.Context) error {
	pending, err := uc.paymentRepo.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	uc.logger.Debugw("polling pending payments", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		update, err := uc.gateway.QueryStatus(ctx, p.ExternalReference())
		if err != nil {
			uc.logger.Warnw("provider status query failed",
				"external_reference", p.ExternalReference(),
				"error", err,
			)
			continue
		}

		if err := uc.reconcile.Execute(ctx, update); err != nil {
			uc.logger.Errorw("failed to reconcile polled payment",
				"external_reference", p.ExternalReference(),
				"error", err,
			)
		}
	}

	return nil
}
