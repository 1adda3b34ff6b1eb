package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
)

type fakeLedger struct {
	payments  map[string]payment.Payment // keyed by transaction id
	getErr    error
	completed []string
	failed    []string
	markErr   error
}

func (f *fakeLedger) GetByID(ctx context.Context, id string) (payment.Payment, error) {
	return payment.Payment{}, payment.ErrPaymentNotFound
}

func (f *fakeLedger) GetByTransactionID(ctx context.Context, method payment.Method, transactionID string) (payment.Payment, error) {
	if f.getErr != nil {
		return payment.Payment{}, f.getErr
	}
	p, ok := f.payments[transactionID]
	if !ok || p.Method != method {
		return payment.Payment{}, payment.ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeLedger) FindNeedingResync(ctx context.Context, filter payment.ResyncFilter) ([]payment.Payment, error) {
	return nil, nil
}

func (f *fakeLedger) MarkCompleted(ctx context.Context, paymentID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.completed = append(f.completed, paymentID)
	return nil
}

func (f *fakeLedger) MarkFailed(ctx context.Context, paymentID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.failed = append(f.failed, paymentID)
	return nil
}

type fakeGateway struct {
	status   payment.GatewayStatus
	fetchErr error
	fetches  int
}

func (f *fakeGateway) FetchStatus(ctx context.Context, transactionID string) (payment.GatewayStatus, error) {
	f.fetches++
	if f.fetchErr != nil {
		return payment.GatewayStatus{}, f.fetchErr
	}
	return f.status, nil
}

func (f *fakeGateway) Resolve(providerStatus string) payment.Resolution {
	switch providerStatus {
	case "approved", "ACCEPTED":
		return payment.ResolutionCompleted
	case "declined", "REFUSED":
		return payment.ResolutionFailed
	default:
		return payment.ResolutionPending
	}
}

func storedPayment(id, transactionID string, method payment.Method) payment.Payment {
	return payment.Payment{
		ID:            id,
		OrderID:       "order-" + id,
		Method:        method,
		Status:        payment.StatusPending,
		Amount:        decimal.NewFromInt(2500),
		Currency:      "XOF",
		TransactionID: &transactionID,
	}
}

func newService(t *testing.T, ledger *fakeLedger, fedapay, cinetpay *fakeGateway) payment.Service {
	t.Helper()
	gateways := map[payment.Method]payment.GatewayClient{}
	if fedapay != nil {
		gateways[payment.MethodFedaPay] = fedapay
	}
	if cinetpay != nil {
		gateways[payment.MethodCinetPay] = cinetpay
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPaymentService(ledger, gateways, logger)
}

func fedaPayEvent(id int64, status string) payment.FedaPayWebhookEvent {
	return payment.FedaPayWebhookEvent{
		Name: "transaction." + status,
		Entity: payment.FedaPayTransaction{
			ID:     id,
			Status: status,
		},
	}
}

func TestHandleFedaPayEvent_Approved(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{payments: map[string]payment.Payment{
		"12345": storedPayment("pay-1", "12345", payment.MethodFedaPay),
	}}
	svc := newService(t, ledger, &fakeGateway{}, nil)

	err := svc.HandleFedaPayEvent(context.Background(), fedaPayEvent(12345, "approved"))

	require.NoError(t, err)
	assert.Equal(t, []string{"pay-1"}, ledger.completed)
}

func TestHandleFedaPayEvent_Declined(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{payments: map[string]payment.Payment{
		"12345": storedPayment("pay-1", "12345", payment.MethodFedaPay),
	}}
	svc := newService(t, ledger, &fakeGateway{}, nil)

	err := svc.HandleFedaPayEvent(context.Background(), fedaPayEvent(12345, "declined"))

	require.NoError(t, err)
	assert.Equal(t, []string{"pay-1"}, ledger.failed)
	assert.Empty(t, ledger.completed)
}

func TestHandleFedaPayEvent_UnknownTransactionAcknowledged(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{payments: map[string]payment.Payment{}}
	svc := newService(t, ledger, &fakeGateway{}, nil)

	// No matching payment: acknowledge so the provider stops retrying.
	err := svc.HandleFedaPayEvent(context.Background(), fedaPayEvent(99999, "approved"))

	require.NoError(t, err)
	assert.Empty(t, ledger.completed)
	assert.Empty(t, ledger.failed)
}

func TestHandleFedaPayEvent_PendingStatusIsNoOp(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{payments: map[string]payment.Payment{
		"12345": storedPayment("pay-1", "12345", payment.MethodFedaPay),
	}}
	svc := newService(t, ledger, &fakeGateway{}, nil)

	err := svc.HandleFedaPayEvent(context.Background(), fedaPayEvent(12345, "pending"))

	require.NoError(t, err)
	assert.Empty(t, ledger.completed)
	assert.Empty(t, ledger.failed)
}

func TestHandleFedaPayEvent_LedgerErrorPropagates(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{
		payments: map[string]payment.Payment{
			"12345": storedPayment("pay-1", "12345", payment.MethodFedaPay),
		},
		markErr: errors.New("deadlock detected"),
	}
	svc := newService(t, ledger, &fakeGateway{}, nil)

	err := svc.HandleFedaPayEvent(context.Background(), fedaPayEvent(12345, "approved"))

	// The provider must retry when we could not record the transition.
	require.Error(t, err)
}

func TestHandleCinetPayNotification_FetchesAuthoritativeStatus(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{payments: map[string]payment.Payment{
		"ct-777": storedPayment("pay-7", "ct-777", payment.MethodCinetPay),
	}}
	gateway := &fakeGateway{status: payment.GatewayStatus{ProviderStatus: "ACCEPTED"}}
	svc := newService(t, ledger, nil, gateway)

	err := svc.HandleCinetPayNotification(context.Background(), payment.CinetPayNotification{
		TransactionID: "ct-777",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, gateway.fetches)
	assert.Equal(t, []string{"pay-7"}, ledger.completed)
}

func TestHandleCinetPayNotification_TerminalPaymentSkipsFetch(t *testing.T) {
	t.Parallel()

	p := storedPayment("pay-7", "ct-777", payment.MethodCinetPay)
	p.Status = payment.StatusCompleted
	ledger := &fakeLedger{payments: map[string]payment.Payment{"ct-777": p}}
	gateway := &fakeGateway{status: payment.GatewayStatus{ProviderStatus: "ACCEPTED"}}
	svc := newService(t, ledger, nil, gateway)

	err := svc.HandleCinetPayNotification(context.Background(), payment.CinetPayNotification{
		TransactionID: "ct-777",
	})

	require.NoError(t, err)
	assert.Zero(t, gateway.fetches)
	assert.Empty(t, ledger.completed)
}

func TestHandleCinetPayNotification_CheckFailurePropagates(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{payments: map[string]payment.Payment{
		"ct-777": storedPayment("pay-7", "ct-777", payment.MethodCinetPay),
	}}
	gateway := &fakeGateway{fetchErr: errors.New("upstream 503")}
	svc := newService(t, ledger, nil, gateway)

	err := svc.HandleCinetPayNotification(context.Background(), payment.CinetPayNotification{
		TransactionID: "ct-777",
	})

	require.Error(t, err)
	assert.Empty(t, ledger.completed)
	assert.Empty(t, ledger.failed)
}

func TestHandleCinetPayNotification_UnknownTransactionAcknowledged(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{payments: map[string]payment.Payment{}}
	gateway := &fakeGateway{}
	svc := newService(t, ledger, nil, gateway)

	err := svc.HandleCinetPayNotification(context.Background(), payment.CinetPayNotification{
		TransactionID: "ct-000",
	})

	require.NoError(t, err)
	assert.Zero(t, gateway.fetches)
}
