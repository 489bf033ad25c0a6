package usecases

import (
	"context"

	"keygate/internal/application/payment/dto"
	"keygate/internal/domain/payment"
	"keygate/internal/shared/errors"
)

// GetPaymentUseCase looks up one purchase for its owner.
type GetPaymentUseCase struct {
	paymentRepo payment.PaymentRepository
}

func NewGetPaymentUseCase(paymentRepo payment.PaymentRepository) *GetPaymentUseCase {
	return &GetPaymentUseCase{paymentRepo: paymentRepo}
}

// Execute returns the payment with the given order number. Payments are only
// visible to the account that created them.
func (uc *GetPaymentUseCase) Execute(ctx context.Context, userID uint, orderNo string) (*dto.PaymentResponse, error) {
	p, err := uc.paymentRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if p.UserID() != userID {
		// Do not leak other accounts' order numbers.
		return nil, errors.NewNotFoundError("payment not found")
	}
	return dto.FromPayment(p), nil
}

// ListPlans returns the purchasable plan catalog.
func ListPlans() []*dto.PlanResponse {
	out := make([]*dto.PlanResponse, 0, len(payment.DefaultPlans))
	for _, p := range payment.DefaultPlans {
		out = append(out, &dto.PlanResponse{
			ID:           p.ID,
			Name:         p.Name,
			DurationDays: p.DurationDays,
			AmountCents:  p.AmountCents,
			Currency:     p.Currency,
		})
	}
	return out
}
