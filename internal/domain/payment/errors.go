package payment

import "errors"

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrMissingTransactionID = errors.New("payment has no provider transaction id")
	ErrUnknownMethod        = errors.New("unknown payment method")

	// ErrStatusConflict is returned when a concurrent writer moved the
	// payment to a different terminal status. Reaching the same terminal
	// status concurrently is a no-op, not a conflict.
	ErrStatusConflict = errors.New("payment already in a different terminal status")
)
