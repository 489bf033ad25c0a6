package paymentgateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"keygate/internal/shared/logger"
)

// PIXGatewayConfig holds the configuration for the PIX payment provider.
type PIXGatewayConfig struct {
	BaseURL   string
	Secret    string
	NotifyURL string
	ReturnURL string
}

// PIXGateway talks to a PIX charge provider over HTTP. Webhook pushes are
// authenticated with an HMAC-SHA256 signature of the raw body.
type PIXGateway struct {
	config     PIXGatewayConfig
	httpClient *http.Client
	logger     logger.Interface
}

func NewPIXGateway(config PIXGatewayConfig, logger logger.Interface) *PIXGateway {
	return &PIXGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

var _ PaymentGateway = (*PIXGateway)(nil)

type pixChargeRequest struct {
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	NotifyURL   string `json:"notify_url"`
	ReturnURL   string `json:"return_url"`
}

type pixChargeResponse struct {
	Reference  string `json:"reference"`
	PaymentURL string `json:"payment_url"`
	QRCode     string `json:"qr_code"`
	Status     string `json:"status"`
}

type pixStatusResponse struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"transaction_id"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
}

func (g *PIXGateway) CreateCharge(ctx context.Context, req CreateChargeRequest) (*CreateChargeResponse, error) {
	body, err := json.Marshal(pixChargeRequest{
		Reference:   req.ExternalReference,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Description: req.Description,
		NotifyURL:   req.NotifyURL,
		ReturnURL:   req.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.config.Secret)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("provider returned status %d creating charge", resp.StatusCode)
	}

	var chargeResp pixChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}

	return &CreateChargeResponse{
		PaymentURL: chargeResp.PaymentURL,
		QRCode:     chargeResp.QRCode,
	}, nil
}

func (g *PIXGateway) VerifyCallback(req *http.Request) (*ProviderUpdate, error) {
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read callback body: %w", err)
	}

	signature := req.Header.Get("X-Signature")
	if signature == "" {
		return nil, fmt.Errorf("missing callback signature")
	}

	mac := hmac.New(sha256.New, []byte(g.config.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("invalid callback signature")
	}

	var payload pixStatusResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode callback payload: %w", err)
	}
	if payload.Reference == "" {
		return nil, fmt.Errorf("callback payload missing reference")
	}

	return &ProviderUpdate{
		ExternalReference: payload.Reference,
		TransactionID:     payload.TransactionID,
		AmountCents:       payload.AmountCents,
		Currency:          payload.Currency,
		Status:            normalizePIXStatus(payload.Status),
	}, nil
}

func (g *PIXGateway) QueryStatus(ctx context.Context, externalReference string) (*ProviderUpdate, error) {
	url := fmt.Sprintf("%s/v1/charges/%s", g.config.BaseURL, externalReference)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.config.Secret)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("status query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d querying charge %s", resp.StatusCode, externalReference)
	}

	var statusResp pixStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &ProviderUpdate{
		ExternalReference: statusResp.Reference,
		TransactionID:     statusResp.TransactionID,
		AmountCents:       statusResp.AmountCents,
		Currency:          statusResp.Currency,
		Status:            normalizePIXStatus(statusResp.Status),
	}, nil
}

// normalizePIXStatus maps provider status strings onto the normalized set.
func normalizePIXStatus(status string) string {
	switch status {
	case "CONCLUIDA", "approved", "paid":
		return StatusApproved
	case "REMOVIDA_PELO_PSP", "rejected", "failed":
		return StatusRejected
	case "REMOVIDA_PELO_USUARIO_RECEBEDOR", "cancelled":
		return StatusCancelled
	default:
		return StatusPending
	}
}
