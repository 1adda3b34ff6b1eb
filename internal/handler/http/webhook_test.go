package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	"github.com/boutikplace/shop-backend-go/internal/handler/http/response"
	"github.com/boutikplace/shop-backend-go/internal/pkg/signature"
)

const (
	testFedaPaySecret  = "whsec_fedapay_secret_000001"
	testCinetPaySecret = "whsec_cinetpay_secret_00001"
)

type fakePaymentService struct {
	fedaPayEvents []payment.FedaPayWebhookEvent
	cinetPayCalls []payment.CinetPayNotification
	fedaPayErr    error
	cinetPayErr   error
}

func (f *fakePaymentService) HandleFedaPayEvent(ctx context.Context, event payment.FedaPayWebhookEvent) error {
	f.fedaPayEvents = append(f.fedaPayEvents, event)
	return f.fedaPayErr
}

func (f *fakePaymentService) HandleCinetPayNotification(ctx context.Context, n payment.CinetPayNotification) error {
	f.cinetPayCalls = append(f.cinetPayCalls, n)
	return f.cinetPayErr
}

func newWebhookFixture(t *testing.T) (*fakePaymentService, WebhookHandler) {
	t.Helper()
	svc := &fakePaymentService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewWebhookHandler(
		svc,
		signature.NewVerifier(testFedaPaySecret, 300, logger),
		signature.NewVerifier(testCinetPaySecret, 300, logger),
	)
	return svc, handler
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestFedaPayWebhook_ValidSignature(t *testing.T) {
	t.Parallel()

	svc, handler := newWebhookFixture(t)

	body := `{"name":"transaction.approved","entity":{"id":12345,"status":"approved"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/fedapay", strings.NewReader(body))
	req.Header.Set("X-Fedapay-Signature", sign(testFedaPaySecret, body))
	rec := httptest.NewRecorder()

	handler.FedaPay(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.fedaPayEvents, 1)
	assert.Equal(t, int64(12345), svc.fedaPayEvents[0].Entity.ID)
	assert.Equal(t, "approved", svc.fedaPayEvents[0].Entity.Status)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestFedaPayWebhook_StructuredSignature(t *testing.T) {
	t.Parallel()

	svc, handler := newWebhookFixture(t)

	body := `{"name":"transaction.approved","entity":{"id":12345,"status":"approved"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/fedapay", strings.NewReader(body))
	req.Header.Set("X-Fedapay-Signature", "v1="+sign(testFedaPaySecret, body))
	rec := httptest.NewRecorder()

	handler.FedaPay(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.fedaPayEvents, 1)
}

func TestFedaPayWebhook_InvalidSignature(t *testing.T) {
	t.Parallel()

	svc, handler := newWebhookFixture(t)

	body := `{"name":"transaction.approved","entity":{"id":12345,"status":"approved"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/fedapay", strings.NewReader(body))
	req.Header.Set("X-Fedapay-Signature", sign("whsec_wrong_secret_123456789", body))
	rec := httptest.NewRecorder()

	handler.FedaPay(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.fedaPayEvents)
}

func TestFedaPayWebhook_MissingSignature(t *testing.T) {
	t.Parallel()

	svc, handler := newWebhookFixture(t)

	body := `{"name":"transaction.approved","entity":{"id":12345}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/fedapay", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.FedaPay(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.fedaPayEvents)
}

func TestFedaPayWebhook_MalformedBody(t *testing.T) {
	t.Parallel()

	svc, handler := newWebhookFixture(t)

	body := `{not json`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/fedapay", strings.NewReader(body))
	req.Header.Set("X-Fedapay-Signature", sign(testFedaPaySecret, body))
	rec := httptest.NewRecorder()

	handler.FedaPay(rec, req)

	// Correctly signed garbage is the sender's bug, not ours.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.fedaPayEvents)
}

func TestFedaPayWebhook_ServiceErrorTriggersRetry(t *testing.T) {
	t.Parallel()

	svc, handler := newWebhookFixture(t)
	svc.fedaPayErr = errors.New("db unavailable")

	body := `{"name":"transaction.approved","entity":{"id":12345,"status":"approved"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/fedapay", strings.NewReader(body))
	req.Header.Set("X-Fedapay-Signature", sign(testFedaPaySecret, body))
	rec := httptest.NewRecorder()

	handler.FedaPay(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCinetPayWebhook_ValidSignature(t *testing.T) {
	t.Parallel()

	svc, handler := newWebhookFixture(t)

	body := `{"cpm_trans_id":"ct-777","cpm_site_id":"site_42","cpm_amount":"2500","cpm_currency":"XOF"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/cinetpay", strings.NewReader(body))
	req.Header.Set("X-Token", sign(testCinetPaySecret, body))
	rec := httptest.NewRecorder()

	handler.CinetPay(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.cinetPayCalls, 1)
	assert.Equal(t, "ct-777", svc.cinetPayCalls[0].TransactionID)
}

func TestCinetPayWebhook_WrongProviderSecretRejected(t *testing.T) {
	t.Parallel()

	// Each provider has its own secret; a FedaPay-signed body must not
	// pass the CinetPay endpoint.
	svc, handler := newWebhookFixture(t)

	body := `{"cpm_trans_id":"ct-777"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/cinetpay", strings.NewReader(body))
	req.Header.Set("X-Token", sign(testFedaPaySecret, body))
	rec := httptest.NewRecorder()

	handler.CinetPay(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.cinetPayCalls)
}

func TestCinetPayWebhook_MissingTransactionID(t *testing.T) {
	t.Parallel()

	svc, handler := newWebhookFixture(t)

	body := `{"cpm_site_id":"site_42"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/cinetpay", strings.NewReader(body))
	req.Header.Set("X-Token", sign(testCinetPaySecret, body))
	rec := httptest.NewRecorder()

	handler.CinetPay(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.cinetPayCalls)
}
