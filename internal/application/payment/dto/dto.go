// Package dto defines the transport-facing payment shapes.
package dto

import (
	"time"

	"keygate/internal/domain/payment"
)

// PaymentResponse is what clients see of a purchase attempt.
type PaymentResponse struct {
	OrderNo           string     `json:"orderNo"`
	ExternalReference string     `json:"externalReference"`
	Plan              string     `json:"plan"`
	AmountCents       int64      `json:"amountCents"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	PaymentURL        *string    `json:"paymentUrl,omitempty"`
	QRCode            *string    `json:"qrCode,omitempty"`
	ExpiresAt         time.Time  `json:"expiresAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
}

// FromPayment maps a payment aggregate to its response shape.
func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		OrderNo:           p.OrderNo(),
		ExternalReference: p.ExternalReference(),
		Plan:              p.Plan(),
		AmountCents:       p.Amount().AmountInCents(),
		Currency:          p.Amount().Currency(),
		Status:            p.Status().String(),
		PaymentURL:        p.PaymentURL(),
		QRCode:            p.QRCode(),
		ExpiresAt:         p.ExpiresAt(),
		CreatedAt:         p.CreatedAt(),
		ApprovedAt:        p.ApprovedAt(),
	}
}

// PlanResponse is one purchasable tier.
type PlanResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DurationDays int    `json:"durationDays"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
}
