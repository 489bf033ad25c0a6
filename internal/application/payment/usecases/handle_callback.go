package usecases

import (
	"net/http"

	"keygate/internal/application/payment/paymentgateway"
	"keygate/internal/shared/logger"
)

// HandleCallbackUseCase processes a webhook push from the provider. The
// payload is untrusted until the gateway authenticates it; after that it
// feeds the same reconciliation gate as the poller.
type HandleCallbackUseCase struct {
	gateway   paymentgateway.PaymentGateway
	reconcile *ReconcilePaymentUseCase
	logger    logger.Interface
}

func NewHandleCallbackUseCase(
	gateway paymentgateway.PaymentGateway,
	reconcile *ReconcilePaymentUseCase,
	logger logger.Interface,
) *HandleCallbackUseCase {
	return &HandleCallbackUseCase{
		gateway:   gateway,
		reconcile: reconcile,
		logger:    logger,
	}
}

// Execute authenticates the webhook request and reconciles its update.
func (uc *HandleCallbackUseCase) Execute(req *http.Request) error {
	update, err := uc.gateway.VerifyCallback(req)
	if err != nil {
		uc.logger.Warnw("rejected payment callback", "error", err)
		return err
	}

	uc.logger.Debugw("payment callback received",
		"external_reference", update.ExternalReference,
		"provider_status", update.Status,
	)

	return uc.reconcile.Execute(req.Context(), update)
}
