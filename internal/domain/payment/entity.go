package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Method identifies the payment provider a payment runs through.
type Method string

const (
	MethodFedaPay  Method = "fedapay"
	MethodCinetPay Method = "cinetpay"
)

// ParseMethod validates a method string from the outside world.
func ParseMethod(s string) (Method, bool) {
	switch Method(s) {
	case MethodFedaPay, MethodCinetPay:
		return Method(s), true
	}
	return "", false
}

// Status represents the status of a payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status admits no further transition.
// A payment moves pending -> {completed, failed} at most once;
// re-applying the same terminal status is a no-op, not an error.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// OrderStatus represents the status of an order. Only the payment
// lifecycle states matter to this core; the rest of the order flow is
// owned elsewhere.
type OrderStatus string

const (
	// OrderStatusPaymentProcessing means a payment was submitted and
	// the shop is waiting for provider confirmation.
	OrderStatusPaymentProcessing OrderStatus = "payment_processing"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusPaymentFailed     OrderStatus = "payment_failed"
)

// Payment is one checkout attempt against a provider.
type Payment struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Method        Method          `json:"method"`
	Status        Status          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TransactionID *string         `json:"transaction_id,omitempty"` // provider-side id, required for resync
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Resyncable reports whether the payment is a valid reconciliation
// candidate on its own fields (the owning order state is checked by the
// ledger query).
func (p Payment) Resyncable() bool {
	return p.Status == StatusPending && p.TransactionID != nil && *p.TransactionID != ""
}

// Order is the owning aggregate of a payment attempt. Zero or one
// active payment exists per attempt.
type Order struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Status     OrderStatus     `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Resolution is the three-way reading of a provider's authoritative
// transaction status. Unrecognized provider vocabulary always resolves
// to ResolutionPending, never to ResolutionCompleted.
type Resolution string

const (
	ResolutionCompleted Resolution = "completed"
	ResolutionFailed    Resolution = "failed"
	ResolutionPending   Resolution = "pending"
)
