package payment

import "context"

// Service applies verified provider webhook events to the ledger.
// Signature verification happens before this layer, at the HTTP
// boundary.
type Service interface {
	// HandleFedaPayEvent applies a FedaPay transaction event. Events for
	// unknown transactions are logged and ignored.
	HandleFedaPayEvent(ctx context.Context, event FedaPayWebhookEvent) error

	// HandleCinetPayNotification handles a CinetPay notify callback. The
	// notification itself carries no trustworthy status, so the current
	// state is fetched from the payment check endpoint before applying.
	HandleCinetPayNotification(ctx context.Context, n CinetPayNotification) error
}

// Reconciler resolves payments stuck in pending by querying the
// provider's source of truth.
type Reconciler interface {
	// Resync resolves one payment. Gateway failures leave the payment
	// pending and report ResyncError; they are never escalated to failed.
	Resync(ctx context.Context, p Payment) ResyncOutcome

	// RunBatch selects candidates per filter and resyncs them
	// sequentially, checking ctx between items. One item's failure never
	// aborts the batch.
	RunBatch(ctx context.Context, filter ResyncFilter) (ResyncSummary, error)
}
