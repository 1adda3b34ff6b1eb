package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
)

type paymentService struct {
	ledger   payment.Ledger
	gateways map[payment.Method]payment.GatewayClient
	logger   *slog.Logger
}

// NewPaymentService creates the service that applies verified provider
// events to the ledger. Signature verification already happened at the
// HTTP boundary by the time these methods run.
func NewPaymentService(
	ledger payment.Ledger,
	gateways map[payment.Method]payment.GatewayClient,
	logger *slog.Logger,
) payment.Service {
	return &paymentService{
		ledger:   ledger,
		gateways: gateways,
		logger:   logger,
	}
}

func (s *paymentService) HandleFedaPayEvent(ctx context.Context, event payment.FedaPayWebhookEvent) error {
	transactionID := strconv.FormatInt(event.Entity.ID, 10)

	p, err := s.ledger.GetByTransactionID(ctx, payment.MethodFedaPay, transactionID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			// Events for transactions we never created (or already purged)
			// are acknowledged, not retried.
			s.logger.Warn("webhook for unknown transaction",
				"method", payment.MethodFedaPay,
				"transaction_id", transactionID,
				"event", event.Name,
			)
			return nil
		}
		return fmt.Errorf("get payment: %w", err)
	}

	gateway, ok := s.gateways[payment.MethodFedaPay]
	if !ok {
		return payment.ErrUnknownMethod
	}

	return s.apply(ctx, p, gateway.Resolve(event.Entity.Status), event.Entity.Status)
}

func (s *paymentService) HandleCinetPayNotification(ctx context.Context, n payment.CinetPayNotification) error {
	p, err := s.ledger.GetByTransactionID(ctx, payment.MethodCinetPay, n.TransactionID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			s.logger.Warn("webhook for unknown transaction",
				"method", payment.MethodCinetPay,
				"transaction_id", n.TransactionID,
			)
			return nil
		}
		return fmt.Errorf("get payment: %w", err)
	}

	if p.Status.IsTerminal() {
		return nil
	}

	gateway, ok := s.gateways[payment.MethodCinetPay]
	if !ok {
		return payment.ErrUnknownMethod
	}

	// The notification itself is just a nudge; fetch the authoritative
	// status before applying anything.
	status, err := gateway.FetchStatus(ctx, n.TransactionID)
	if err != nil {
		return fmt.Errorf("check cinetpay transaction %s: %w", n.TransactionID, err)
	}

	return s.apply(ctx, p, gateway.Resolve(status.ProviderStatus), status.ProviderStatus)
}

// apply moves the payment to the resolved state. Pending resolutions
// are a no-op; the ledger guards against double-applied effects.
func (s *paymentService) apply(ctx context.Context, p payment.Payment, res payment.Resolution, providerStatus string) error {
	switch res {
	case payment.ResolutionCompleted:
		if err := s.ledger.MarkCompleted(ctx, p.ID); err != nil {
			return fmt.Errorf("mark payment %s completed: %w", p.ID, err)
		}
		s.logger.Info("payment completed via webhook",
			"payment_id", p.ID, "order_id", p.OrderID, "method", p.Method, "provider_status", providerStatus)
	case payment.ResolutionFailed:
		if err := s.ledger.MarkFailed(ctx, p.ID); err != nil {
			return fmt.Errorf("mark payment %s failed: %w", p.ID, err)
		}
		s.logger.Info("payment failed via webhook",
			"payment_id", p.ID, "order_id", p.OrderID, "method", p.Method, "provider_status", providerStatus)
	default:
		s.logger.Debug("webhook left payment pending",
			"payment_id", p.ID, "method", p.Method, "provider_status", providerStatus)
	}
	return nil
}
