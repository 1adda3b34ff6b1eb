package payment

import (
	"context"
	"time"
)

// ResyncFilter selects the stuck payments a reconciliation batch works
// on. Batches are deterministic: candidates are ordered by id ascending
// and capped at Limit.
type ResyncFilter struct {
	// MinAge excludes payments younger than this; freshly submitted
	// payments are usually still waiting for their first webhook.
	MinAge time.Duration

	// Limit caps the batch size. Zero means no cap.
	Limit int

	// Method optionally restricts the batch to one provider.
	Method *Method
}

// Ledger is the persisted Payment/Order aggregate. Implementations must
// serialize the read-check-transition sequence per payment (row lock or
// equivalent) so a webhook-triggered update and a reconciliation-
// triggered update racing on the same payment cannot both apply the
// completed effect. The wallet credit side effect is guarded by a
// uniqueness constraint on the payment id, so at-most-once holds even
// under retried calls.
type Ledger interface {
	// GetByID retrieves a payment by its id.
	GetByID(ctx context.Context, id string) (Payment, error)

	// GetByTransactionID retrieves a payment by provider transaction id.
	GetByTransactionID(ctx context.Context, method Method, transactionID string) (Payment, error)

	// FindNeedingResync returns pending payments with a transaction id
	// whose owning order is payment_processing, older than filter.MinAge.
	FindNeedingResync(ctx context.Context, filter ResyncFilter) ([]Payment, error)

	// MarkCompleted transitions the payment to completed, credits the
	// customer wallet and marks the order paid, atomically. Re-applying
	// completed is a no-op; a failed payment yields ErrStatusConflict.
	MarkCompleted(ctx context.Context, paymentID string) error

	// MarkFailed transitions the payment to failed and marks the order
	// payment_failed, atomically. Re-applying failed is a no-op; a
	// completed payment yields ErrStatusConflict.
	MarkFailed(ctx context.Context, paymentID string) error
}

// OrderRepository reads order state for this core. Orders are created
// and fulfilled elsewhere.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (Order, error)
}

// GatewayStatus is the authoritative transaction state reported by a
// provider, kept verbatim next to the raw payload for diagnosis.
type GatewayStatus struct {
	ProviderStatus string
	Raw            map[string]any
}

// GatewayClient queries one provider's source of truth for a
// transaction. Implementations must be safe to call repeatedly
// (idempotent read); callers apply their own timeout policy through
// ctx.
type GatewayClient interface {
	FetchStatus(ctx context.Context, transactionID string) (GatewayStatus, error)

	// Resolve maps the provider's status vocabulary to the three-way
	// resolution. The mapping is total: unknown values resolve to
	// ResolutionPending.
	Resolve(providerStatus string) Resolution
}
