package paymentgateway

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// MockGateway is a development stand-in for a real provider. Every charge
// succeeds immediately on query, which makes local end-to-end flows easy.
type MockGateway struct {
	approveOnQuery bool
}

func NewMockGateway(approveOnQuery bool) *MockGateway {
	return &MockGateway{approveOnQuery: approveOnQuery}
}

var _ PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) CreateCharge(ctx context.Context, req CreateChargeRequest) (*CreateChargeResponse, error) {
	return &CreateChargeResponse{
		PaymentURL: fmt.Sprintf("https://mock-provider.example.com/pay?ref=%s", req.ExternalReference),
		QRCode:     fmt.Sprintf("00020126MOCK%s", req.ExternalReference),
	}, nil
}

func (m *MockGateway) VerifyCallback(req *http.Request) (*ProviderUpdate, error) {
	if err := req.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	ref := req.FormValue("reference")
	if ref == "" {
		return nil, fmt.Errorf("missing reference")
	}

	status := req.FormValue("status")
	if status == "" {
		status = StatusApproved
	}

	var amountCents int64
	fmt.Sscanf(req.FormValue("amount_cents"), "%d", &amountCents)

	return &ProviderUpdate{
		ExternalReference: ref,
		TransactionID:     fmt.Sprintf("MOCKTXN_%d", time.Now().Unix()),
		AmountCents:       amountCents,
		Currency:          req.FormValue("currency"),
		Status:            status,
	}, nil
}

func (m *MockGateway) QueryStatus(ctx context.Context, externalReference string) (*ProviderUpdate, error) {
	status := StatusPending
	if m.approveOnQuery {
		status = StatusApproved
	}
	return &ProviderUpdate{
		ExternalReference: externalReference,
		TransactionID:     fmt.Sprintf("MOCKTXN_%s", externalReference),
		Status:            status,
	}, nil
}
