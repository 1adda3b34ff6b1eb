package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	"github.com/google/uuid"
)

type engine struct {
	ledger   payment.Ledger
	orders   payment.OrderRepository
	gateways map[payment.Method]payment.GatewayClient
	logger   *slog.Logger
}

// NewEngine creates the reconciliation engine. It holds no mutable
// state of its own; concurrency control for racing updates on the same
// payment lives in the ledger.
func NewEngine(
	ledger payment.Ledger,
	orders payment.OrderRepository,
	gateways map[payment.Method]payment.GatewayClient,
	logger *slog.Logger,
) payment.Reconciler {
	return &engine{
		ledger:   ledger,
		orders:   orders,
		gateways: gateways,
		logger:   logger,
	}
}

// Resync resolves one stuck payment against the provider's source of
// truth. A gateway failure is retryable: the payment stays pending and
// the outcome is "error", never "failed".
func (e *engine) Resync(ctx context.Context, p payment.Payment) payment.ResyncOutcome {
	outcome := payment.ResyncOutcome{PaymentID: p.ID, OrderID: p.OrderID}

	if !p.Resyncable() {
		outcome.Result = payment.ResyncError
		outcome.Detail = "payment is not a resync candidate"
		return outcome
	}

	// The batch query already filters on order state, but Resync is also
	// callable for a single payment; re-check the precondition here.
	order, err := e.orders.GetByID(ctx, p.OrderID)
	if err != nil {
		outcome.Result = payment.ResyncError
		outcome.Detail = err.Error()
		return outcome
	}
	if order.Status != payment.OrderStatusPaymentProcessing {
		outcome.Result = payment.ResyncError
		outcome.Detail = fmt.Sprintf("order %s is %s, not %s", order.ID, order.Status, payment.OrderStatusPaymentProcessing)
		return outcome
	}

	gateway, ok := e.gateways[p.Method]
	if !ok {
		outcome.Result = payment.ResyncError
		outcome.Detail = fmt.Sprintf("no gateway configured for method %s", p.Method)
		return outcome
	}

	status, err := gateway.FetchStatus(ctx, *p.TransactionID)
	if err != nil {
		e.logger.Warn("gateway status fetch failed",
			"payment_id", p.ID, "method", p.Method, "error", err)
		outcome.Result = payment.ResyncError
		outcome.Detail = err.Error()
		return outcome
	}

	switch gateway.Resolve(status.ProviderStatus) {
	case payment.ResolutionCompleted:
		if err := e.ledger.MarkCompleted(ctx, p.ID); err != nil {
			return e.ledgerFailure(outcome, p, err)
		}
		outcome.Result = payment.ResyncCompleted
		e.logger.Info("payment completed via resync",
			"payment_id", p.ID, "order_id", p.OrderID, "provider_status", status.ProviderStatus)

	case payment.ResolutionFailed:
		if err := e.ledger.MarkFailed(ctx, p.ID); err != nil {
			return e.ledgerFailure(outcome, p, err)
		}
		outcome.Result = payment.ResyncFailed
		e.logger.Info("payment failed via resync",
			"payment_id", p.ID, "order_id", p.OrderID, "provider_status", status.ProviderStatus)

	default:
		outcome.Result = payment.ResyncPending
		outcome.Detail = fmt.Sprintf("provider status %q still pending", status.ProviderStatus)
	}

	return outcome
}

func (e *engine) ledgerFailure(outcome payment.ResyncOutcome, p payment.Payment, err error) payment.ResyncOutcome {
	if errors.Is(err, payment.ErrStatusConflict) {
		e.logger.Error("conflicting terminal status during resync",
			"payment_id", p.ID, "order_id", p.OrderID, "error", err)
	} else {
		e.logger.Error("ledger transition failed during resync",
			"payment_id", p.ID, "error", err)
	}
	outcome.Result = payment.ResyncError
	outcome.Detail = err.Error()
	return outcome
}

// RunBatch selects stuck payments per filter and resyncs them one by
// one. Cancellation is honored between items; an item already being
// applied runs to completion or rollback in the ledger. One payment's
// failure never stops the rest of the batch.
func (e *engine) RunBatch(ctx context.Context, filter payment.ResyncFilter) (payment.ResyncSummary, error) {
	summary := payment.ResyncSummary{RunID: uuid.NewString()}

	candidates, err := e.ledger.FindNeedingResync(ctx, filter)
	if err != nil {
		return summary, fmt.Errorf("find payments needing resync: %w", err)
	}

	if len(candidates) == 0 {
		return summary, nil
	}

	e.logger.Info("resync batch starting",
		"run_id", summary.RunID, "candidates", len(candidates))

	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("resync batch canceled",
				"run_id", summary.RunID, "processed", len(summary.Outcomes))
			return summary, err
		}
		summary.Add(e.Resync(ctx, p))
	}

	e.logger.Info("resync batch finished",
		"run_id", summary.RunID,
		"completed", summary.Completed,
		"failed", summary.Failed,
		"pending", summary.Pending,
		"errors", summary.Errors,
	)

	return summary, nil
}
