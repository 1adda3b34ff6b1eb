package payment

import (
	"github.com/boutikplace/shop-backend-go/internal/pkg/validator"
)

// FedaPayWebhookEvent is the payload FedaPay posts on transaction state
// changes.
type FedaPayWebhookEvent struct {
	Name   string             `json:"name"` // e.g. "transaction.approved"
	Entity FedaPayTransaction `json:"entity"`
}

// FedaPayTransaction is the transaction entity embedded in FedaPay
// webhook events and status responses.
type FedaPayTransaction struct {
	ID          int64   `json:"id"`
	Reference   string  `json:"reference"`
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Currency    struct {
		ISO string `json:"iso"`
	} `json:"currency"`
}

// CinetPayNotification is the payload CinetPay posts to the notify URL.
// It only announces that something happened to the transaction; the
// authoritative status always comes from the payment check endpoint.
type CinetPayNotification struct {
	TransactionID string `json:"cpm_trans_id"`
	SiteID        string `json:"cpm_site_id"`
	Amount        string `json:"cpm_amount"`
	Currency      string `json:"cpm_currency"`
}

// ResyncResult is the per-payment outcome of one reconciliation
// attempt. Unlike Resolution it includes "error" for gateway or ledger
// failures that leave the payment pending for a later attempt.
type ResyncResult string

const (
	ResyncCompleted ResyncResult = "completed"
	ResyncFailed    ResyncResult = "failed"
	ResyncPending   ResyncResult = "pending"
	ResyncError     ResyncResult = "error"
)

// ResyncOutcome reports what happened to a single payment during a
// batch.
type ResyncOutcome struct {
	PaymentID string       `json:"payment_id"`
	OrderID   string       `json:"order_id"`
	Result    ResyncResult `json:"result"`
	Detail    string       `json:"detail,omitempty"`
}

// ResyncSummary aggregates a whole batch run.
type ResyncSummary struct {
	RunID     string          `json:"run_id"`
	Completed int             `json:"completed"`
	Failed    int             `json:"failed"`
	Pending   int             `json:"pending"`
	Errors    int             `json:"errors"`
	Outcomes  []ResyncOutcome `json:"outcomes,omitempty"`
}

// Add records one outcome into the tallies.
func (s *ResyncSummary) Add(o ResyncOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Result {
	case ResyncCompleted:
		s.Completed++
	case ResyncFailed:
		s.Failed++
	case ResyncPending:
		s.Pending++
	default:
		s.Errors++
	}
}

// ResyncRequest is the admin/CLI input that parameterizes a batch.
type ResyncRequest struct {
	MinAgeMinutes int     `json:"min_age_minutes"`
	Limit         int     `json:"limit"`
	Method        *string `json:"method,omitempty"`
}

func (r *ResyncRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.MinAgeMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "min_age_minutes",
			Message: "min_age_minutes must not be negative",
		})
	}

	if r.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not be negative",
		})
	}
	if r.Limit > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 1000",
		})
	}

	if r.Method != nil {
		if _, ok := ParseMethod(*r.Method); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "method",
				Message: "method must be one of: fedapay, cinetpay",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
