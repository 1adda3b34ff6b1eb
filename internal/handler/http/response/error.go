package response

import (
	"errors"
	"net/http"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	"github.com/boutikplace/shop-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Payment domain errors
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		NotFound(w, "Payment not found")
	case errors.Is(err, payment.ErrOrderNotFound):
		NotFound(w, "Order not found")
	case errors.Is(err, payment.ErrMissingTransactionID):
		BadRequest(w, "Payment has no provider transaction id", nil)
	case errors.Is(err, payment.ErrUnknownMethod):
		BadRequest(w, "Unknown payment method", nil)
	case errors.Is(err, payment.ErrStatusConflict):
		Conflict(w, "Payment already settled with a different status")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
