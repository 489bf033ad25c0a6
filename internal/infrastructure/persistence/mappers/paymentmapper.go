package mappers

import (
	"fmt"

	"keygate/internal/domain/payment"
	vo "keygate/internal/domain/payment/valueobjects"
	"keygate/internal/infrastructure/persistence/models"
)

func PaymentToModel(p *payment.Payment) *models.PaymentModel {
	return &models.PaymentModel{
		ID:                p.ID(),
		OrderNo:           p.OrderNo(),
		ExternalReference: p.ExternalReference(),
		UserID:            p.UserID(),
		Plan:              p.Plan(),
		DurationDays:      p.DurationDays(),
		Amount:            p.Amount().AmountInCents(),
		Currency:          p.Amount().Currency(),
		Status:            p.Status().String(),
		PaymentURL:        p.PaymentURL(),
		QRCode:            p.QRCode(),
		TransactionID:     p.TransactionID(),
		ApprovedAt:        p.ApprovedAt(),
		AppliedAt:         p.AppliedAt(),
		ExpiresAt:         p.ExpiresAt(),
		Version:           p.Version(),
		CreatedAt:         p.CreatedAt(),
		UpdatedAt:         p.UpdatedAt(),
	}
}

func PaymentToDomain(model *models.PaymentModel) (*payment.Payment, error) {
	status := vo.PaymentStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid payment status: %s", model.Status)
	}

	return payment.ReconstructPayment(
		model.ID,
		model.OrderNo,
		model.ExternalReference,
		model.UserID,
		model.Plan,
		model.DurationDays,
		vo.NewMoney(model.Amount, model.Currency),
		status,
		model.PaymentURL,
		model.QRCode,
		model.TransactionID,
		model.ApprovedAt,
		model.AppliedAt,
		model.ExpiresAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}
