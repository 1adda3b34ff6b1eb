package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	"github.com/boutikplace/shop-backend-go/internal/handler/http/response"
	"github.com/boutikplace/shop-backend-go/internal/pkg/signature"
	"github.com/boutikplace/shop-backend-go/internal/pkg/validator"
)

// Signature header names the providers send.
const (
	fedaPaySignatureHeader  = "X-Fedapay-Signature"
	cinetPaySignatureHeader = "X-Token"
)

// maxWebhookBody caps how much of a callback body is read.
const maxWebhookBody = 1 << 20

// WebhookHandler handles payment provider callbacks
type WebhookHandler interface {
	FedaPay(w http.ResponseWriter, r *http.Request)
	CinetPay(w http.ResponseWriter, r *http.Request)
}

type webhookHandlerImpl struct {
	paymentService   payment.Service
	fedaPayVerifier  *signature.Verifier
	cinetPayVerifier *signature.Verifier
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	paymentService payment.Service,
	fedaPayVerifier *signature.Verifier,
	cinetPayVerifier *signature.Verifier,
) WebhookHandler {
	return &webhookHandlerImpl{
		paymentService:   paymentService,
		fedaPayVerifier:  fedaPayVerifier,
		cinetPayVerifier: cinetPayVerifier,
	}
}

// FedaPay processes FedaPay transaction events
// POST /api/v1/webhooks/fedapay - Public, signature-authenticated
func (h *webhookHandlerImpl) FedaPay(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Failed to read request body", nil)
		return
	}

	if !h.fedaPayVerifier.Verify(body, r.Header.Get(fedaPaySignatureHeader)) {
		response.Unauthorized(w, "Invalid webhook signature")
		return
	}

	var event payment.FedaPayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.BadRequest(w, "Invalid webhook payload", nil)
		return
	}

	if err := h.paymentService.HandleFedaPayEvent(r.Context(), event); err != nil {
		// Non-2xx makes the provider retry the delivery.
		response.HandleError(w, err)
		return
	}

	response.Success(w, nil)
}

// CinetPay processes CinetPay notify callbacks
// POST /api/v1/webhooks/cinetpay - Public, signature-authenticated
func (h *webhookHandlerImpl) CinetPay(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Failed to read request body", nil)
		return
	}

	if !h.cinetPayVerifier.Verify(body, r.Header.Get(cinetPaySignatureHeader)) {
		response.Unauthorized(w, "Invalid webhook signature")
		return
	}

	var notification payment.CinetPayNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		response.BadRequest(w, "Invalid webhook payload", nil)
		return
	}
	if validator.IsEmpty(notification.TransactionID) {
		response.BadRequest(w, "Missing cpm_trans_id", nil)
		return
	}

	if err := h.paymentService.HandleCinetPayNotification(r.Context(), notification); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, nil)
}
