package usecases

import (
	"context"
	"fmt"
	"time"

	"keygate/internal/application/payment/dto"
	"keygate/internal/application/payment/paymentgateway"
	"keygate/internal/domain/payment"
	"keygate/internal/shared/config"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// CreatePaymentUseCase starts a purchase: a pending payment record plus a
// provider charge the buyer pays through.
type CreatePaymentUseCase struct {
	paymentRepo payment.PaymentRepository
	gateway     paymentgateway.PaymentGateway
	cfg         config.PaymentConfig
	logger      logger.Interface
}

func NewCreatePaymentUseCase(
	paymentRepo payment.PaymentRepository,
	gateway paymentgateway.PaymentGateway,
	cfg config.PaymentConfig,
	logger logger.Interface,
) *CreatePaymentUseCase {
	return &CreatePaymentUseCase{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		cfg:         cfg,
		logger:      logger,
	}
}

// Execute creates a pending payment for the plan and registers the charge
// with the provider.
func (uc *CreatePaymentUseCase) Execute(ctx context.Context, userID uint, planID string) (*dto.PaymentResponse, error) {
	plan, err := payment.LookupPlan(planID)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	p, err := payment.NewPayment(userID, plan, uc.stalenessWindow())
	if err != nil {
		return nil, err
	}

	charge, err := uc.gateway.CreateCharge(ctx, paymentgateway.CreateChargeRequest{
		ExternalReference: p.ExternalReference(),
		AmountCents:       p.Amount().AmountInCents(),
		Currency:          p.Amount().Currency(),
		Description:       fmt.Sprintf("License %s", plan.Name),
		NotifyURL:         uc.cfg.Gateway.NotifyURL,
		ReturnURL:         uc.cfg.Gateway.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider charge: %w", err)
	}
	p.SetGatewayInfo(charge.PaymentURL, charge.QRCode)

	if err := uc.paymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.logger.Infow("payment created",
		"user_id", userID,
		"order_no", p.OrderNo(),
		"plan", planID,
		"amount", p.Amount().String(),
	)

	return dto.FromPayment(p), nil
}

func (uc *CreatePaymentUseCase) stalenessWindow() time.Duration {
	hours := uc.cfg.StalenessWindowHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}
