// Package paymentgateway defines the port to the external payment provider.
// The provider is an untrusted collaborator: everything it reports is
// validated against the stored payment record before any state change.
package paymentgateway

import (
	"context"
	"net/http"
)

// Provider status values, normalized from whatever the gateway speaks.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// PaymentGateway is implemented per provider. Both delivery paths are
// supported: VerifyCallback parses a webhook push, QueryStatus serves the
// polling loop. Either may observe an approval first.
type PaymentGateway interface {
	// CreateCharge registers a charge with the provider and returns the
	// checkout URL and QR code the buyer needs.
	CreateCharge(ctx context.Context, req CreateChargeRequest) (*CreateChargeResponse, error)

	// VerifyCallback authenticates and parses a webhook push from the
	// provider. A request that fails authentication is rejected before
	// any lookup happens.
	VerifyCallback(req *http.Request) (*ProviderUpdate, error)

	// QueryStatus fetches the current provider-side status for an
	// external reference.
	QueryStatus(ctx context.Context, externalReference string) (*ProviderUpdate, error)
}

// CreateChargeRequest contains the data needed to register a charge.
type CreateChargeRequest struct {
	ExternalReference string
	AmountCents       int64
	Currency          string
	Description       string
	NotifyURL         string
	ReturnURL         string
}

type CreateChargeResponse struct {
	PaymentURL string
	QRCode     string
}

// ProviderUpdate is a provider-reported status for one charge. AmountCents
// is in the smallest currency unit to match the stored payment amount.
type ProviderUpdate struct {
	ExternalReference string
	TransactionID     string
	AmountCents       int64
	Currency          string
	Status            string
}
