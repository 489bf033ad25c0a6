package usecases

import (
	"context"
	"fmt"

	"keygate/internal/application/payment/paymentgateway"
	"keygate/internal/domain/payment"
	"keygate/internal/shared/logger"
)

// LicenseExtender applies the license extension funded by an approved
// payment. Implemented by the entitlement engine's extend use case.
type LicenseExtender interface {
	Apply(ctx context.Context, pay *payment.Payment) error
}

// ReconcilePaymentUseCase is the single convergence point for provider
// updates. The webhook and the poller both feed it; the conditional
// pending -> approved gate in the repository guarantees that only one of them
// applies the extension, however the deliveries interleave or repeat.
type ReconcilePaymentUseCase struct {
	paymentRepo payment.PaymentRepository
	extender    LicenseExtender
	logger      logger.Interface
}

func NewReconcilePaymentUseCase(
	paymentRepo payment.PaymentRepository,
	extender LicenseExtender,
	logger logger.Interface,
) *ReconcilePaymentUseCase {
	return &ReconcilePaymentUseCase{
		paymentRepo: paymentRepo,
		extender:    extender,
		logger:      logger,
	}
}

// Execute applies one provider update. Unknown references are errors so the
// provider redelivers; updates for terminal payments are acknowledged no-ops.
func (uc *ReconcilePaymentUseCase) Execute(ctx context.Context, update *paymentgateway.ProviderUpdate) error {
	pay, err := uc.paymentRepo.GetByExternalReference(ctx, update.ExternalReference)
	if err != nil {
		return err
	}

	switch update.Status {
	case paymentgateway.StatusApproved:
		return uc.applyApproval(ctx, pay, update)
	case paymentgateway.StatusRejected, paymentgateway.StatusCancelled:
		won, err := uc.paymentRepo.MarkRejectedIfPending(ctx, update.ExternalReference)
		if err != nil {
			return err
		}
		if won {
			uc.logger.Infow("payment rejected by provider",
				"external_reference", update.ExternalReference,
				"provider_status", update.Status,
			)
		}
		return nil
	case paymentgateway.StatusPending:
		return nil
	default:
		return fmt.Errorf("unknown provider status %q for %s", update.Status, update.ExternalReference)
	}
}

func (uc *ReconcilePaymentUseCase) applyApproval(ctx context.Context, pay *payment.Payment, update *paymentgateway.ProviderUpdate) error {
	// Poll responses from some providers omit the amount; validate when it
	// is present, before the payment leaves pending.
	if update.AmountCents > 0 {
		if err := pay.ValidateCallbackAmount(update.AmountCents, update.Currency); err != nil {
			uc.logger.Warnw("provider amount mismatch, rejecting payment",
				"external_reference", pay.ExternalReference(),
				"error", err,
			)
			if _, rejErr := uc.paymentRepo.MarkRejectedIfPending(ctx, pay.ExternalReference()); rejErr != nil {
				return rejErr
			}
			return nil
		}
	}

	won, err := uc.paymentRepo.MarkApprovedIfPending(ctx, pay.ExternalReference(), update.TransactionID)
	if err != nil {
		return err
	}
	if !won {
		// Lost to the other delivery path, or the payment was already
		// terminal. Either way the approval is in good hands.
		uc.logger.Debugw("approval already handled",
			"external_reference", pay.ExternalReference(),
		)
		return uc.applyIfUnapplied(ctx, pay.ExternalReference())
	}

	uc.logger.Infow("payment approved",
		"external_reference", pay.ExternalReference(),
		"user_id", pay.UserID(),
		"transaction_id", update.TransactionID,
	)

	return uc.applyIfUnapplied(ctx, pay.ExternalReference())
}

// applyIfUnapplied extends the license when the approved payment has not been
// applied yet. Failures propagate so the delivery is retried; the applied
// marker keeps the retry from double-extending.
func (uc *ReconcilePaymentUseCase) applyIfUnapplied(ctx context.Context, externalReference string) error {
	pay, err := uc.paymentRepo.GetByExternalReference(ctx, externalReference)
	if err != nil {
		return err
	}
	if !pay.Status().IsApproved() {
		return nil
	}
	if err := uc.extender.Apply(ctx, pay); err != nil {
		return fmt.Errorf("extension for %s failed: %w", externalReference, err)
	}
	return nil
}
