package cinetpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/boutikplace/shop-backend-go/internal/config"
	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
)

// Client talks to the CinetPay checkout API. CinetPay's notify
// callbacks carry no trustworthy state, so the payment check endpoint
// is the single source of truth this client exposes.
type Client struct {
	apiKey  string
	siteID  string
	baseURL string
	http    *http.Client
}

// NewClient creates a CinetPay API client.
func NewClient(cfg config.CinetPayConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		siteID:  cfg.SiteID,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError represents a CinetPay API error
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cinetpay API error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

type checkRequest struct {
	APIKey        string `json:"apikey"`
	SiteID        string `json:"site_id"`
	TransactionID string `json:"transaction_id"`
}

type checkResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status        string `json:"status"`
		PaymentMethod string `json:"payment_method"`
		Amount        string `json:"amount"`
		Currency      string `json:"currency"`
	} `json:"data"`
}

// FetchStatus calls /v2/payment/check for the given transaction.
func (c *Client) FetchStatus(ctx context.Context, transactionID string) (payment.GatewayStatus, error) {
	payloadBytes, err := json.Marshal(checkRequest{
		APIKey:        c.apiKey,
		SiteID:        c.siteID,
		TransactionID: transactionID,
	})
	if err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("encode cinetpay request: %w", err)
	}

	url := c.baseURL + "/v2/payment/check"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("build cinetpay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("cinetpay payment check %s: %w", transactionID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("read cinetpay response: %w", err)
	}

	var check checkResponse
	if err := json.Unmarshal(body, &check); err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("decode cinetpay response: %w", err)
	}

	// CinetPay reports transaction-level failures with HTTP 200 and an
	// application code; only transport or auth problems surface as
	// non-2xx. A REFUSED payment is a valid answer, not an API error.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return payment.GatewayStatus{}, &APIError{StatusCode: resp.StatusCode, Code: check.Code, Message: check.Message}
	}

	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	return payment.GatewayStatus{
		ProviderStatus: check.Data.Status,
		Raw:            raw,
	}, nil
}

// Resolve maps CinetPay's payment check vocabulary to the three-way
// resolution. Unknown values stay pending, never completed.
func (c *Client) Resolve(providerStatus string) payment.Resolution {
	switch providerStatus {
	case "ACCEPTED":
		return payment.ResolutionCompleted
	case "REFUSED", "CANCELED", "CANCELLED", "EXPIRED":
		return payment.ResolutionFailed
	default:
		return payment.ResolutionPending
	}
}
