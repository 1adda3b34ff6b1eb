package fedapay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/boutikplace/shop-backend-go/internal/config"
	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
)

// Client talks to the FedaPay transactions API. It only performs the
// one idempotent read this service needs: fetching a transaction's
// authoritative status.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a FedaPay API client.
func NewClient(cfg config.FedaPayConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError represents a FedaPay API error
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fedapay API error [%d]: %s", e.StatusCode, e.Message)
}

// transactionEnvelope matches FedaPay's response shape; the entity is
// nested under the "v1/transaction" key.
type transactionEnvelope struct {
	Transaction struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"v1/transaction"`
}

// FetchStatus retrieves the authoritative status of a transaction.
func (c *Client) FetchStatus(ctx context.Context, transactionID string) (payment.GatewayStatus, error) {
	url := fmt.Sprintf("%s/v1/transactions/%s", c.baseURL, transactionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("build fedapay request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("fedapay transaction %s: %w", transactionID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("read fedapay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return payment.GatewayStatus{}, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	var envelope transactionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return payment.GatewayStatus{}, fmt.Errorf("decode fedapay response: %w", err)
	}

	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	return payment.GatewayStatus{
		ProviderStatus: envelope.Transaction.Status,
		Raw:            raw,
	}, nil
}

// Resolve maps FedaPay's transaction vocabulary to the three-way
// resolution. Anything unrecognized stays pending; crediting on an
// ambiguous status is never acceptable.
func (c *Client) Resolve(providerStatus string) payment.Resolution {
	switch providerStatus {
	case "approved", "transferred":
		return payment.ResolutionCompleted
	case "declined", "canceled", "expired", "refunded":
		return payment.ResolutionFailed
	default:
		return payment.ResolutionPending
	}
}
