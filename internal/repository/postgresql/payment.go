package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	"github.com/boutikplace/shop-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type paymentLedger struct {
	db *database.DB
}

// NewPaymentLedger creates the PostgreSQL payment ledger. All terminal
// transitions run inside a transaction holding a row lock on the
// payment, so a webhook-driven update and a reconciliation-driven
// update racing on the same payment serialize instead of both applying
// the completed effect.
func NewPaymentLedger(db *database.DB) payment.Ledger {
	return &paymentLedger{db: db}
}

const paymentColumns = `id, order_id, method, status, amount, currency, transaction_id, created_at, updated_at`

func scanPayment(row pgx.Row) (payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Status, &p.Amount, &p.Currency,
		&p.TransactionID, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *paymentLedger) GetByID(ctx context.Context, id string) (payment.Payment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment.Payment{}, payment.ErrPaymentNotFound
		}
		return payment.Payment{}, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

func (r *paymentLedger) GetByTransactionID(ctx context.Context, method payment.Method, transactionID string) (payment.Payment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE method = $1 AND transaction_id = $2`

	p, err := scanPayment(q.QueryRow(ctx, query, method, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment.Payment{}, payment.ErrPaymentNotFound
		}
		return payment.Payment{}, fmt.Errorf("failed to get payment by transaction id: %w", err)
	}

	return p, nil
}

func (r *paymentLedger) FindNeedingResync(ctx context.Context, filter payment.ResyncFilter) ([]payment.Payment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT p.id, p.order_id, p.method, p.status, p.amount, p.currency,
			   p.transaction_id, p.created_at, p.updated_at
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.status = $1
		  AND p.transaction_id IS NOT NULL
		  AND o.status = $2
		  AND p.created_at <= NOW() - $3::interval
	`
	args := []interface{}{
		payment.StatusPending,
		payment.OrderStatusPaymentProcessing,
		fmt.Sprintf("%d seconds", int64(filter.MinAge.Seconds())),
	}

	if filter.Method != nil {
		args = append(args, *filter.Method)
		query += fmt.Sprintf(" AND p.method = $%d", len(args))
	}

	query += " ORDER BY p.id ASC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments needing resync: %w", err)
	}
	defer rows.Close()

	var payments []payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// lockedPayment is the row snapshot taken under FOR UPDATE before a
// terminal transition.
type lockedPayment struct {
	ID         string
	OrderID    string
	CustomerID string
	Status     payment.Status
	Amount     decimal.Decimal
	Currency   string
}

func lockPayment(ctx context.Context, tx pgx.Tx, paymentID string) (lockedPayment, error) {
	var lp lockedPayment

	// FOR UPDATE OF p: the order row is locked by its own update below,
	// and locking through the join would invite lock-order inversions.
	query := `
		SELECT p.id, p.order_id, o.customer_id, p.status, p.amount, p.currency
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.id = $1
		FOR UPDATE OF p
	`

	err := tx.QueryRow(ctx, query, paymentID).Scan(
		&lp.ID, &lp.OrderID, &lp.CustomerID, &lp.Status, &lp.Amount, &lp.Currency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lockedPayment{}, payment.ErrPaymentNotFound
		}
		return lockedPayment{}, fmt.Errorf("failed to lock payment: %w", err)
	}

	return lp, nil
}

func (r *paymentLedger) MarkCompleted(ctx context.Context, paymentID string) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		lp, err := lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		switch lp.Status {
		case payment.StatusCompleted:
			// Concurrent writer got here first with the same result.
			return nil
		case payment.StatusFailed:
			return payment.ErrStatusConflict
		}

		if _, err := tx.Exec(ctx,
			`UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2`,
			payment.StatusCompleted, paymentID,
		); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			payment.OrderStatusPaid, lp.OrderID, payment.OrderStatusPaymentProcessing,
		); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		return creditWallet(ctx, tx, lp)
	})
}

func (r *paymentLedger) MarkFailed(ctx context.Context, paymentID string) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		lp, err := lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		switch lp.Status {
		case payment.StatusFailed:
			return nil
		case payment.StatusCompleted:
			return payment.ErrStatusConflict
		}

		if _, err := tx.Exec(ctx,
			`UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2`,
			payment.StatusFailed, paymentID,
		); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			payment.OrderStatusPaymentFailed, lp.OrderID, payment.OrderStatusPaymentProcessing,
		); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		return nil
	})
}

// creditWallet records the credit and applies it to the wallet balance.
// wallet_credits has a unique constraint on payment_id: a retried or
// concurrent completion inserts nothing and therefore credits nothing,
// which is what makes the effect at-most-once.
func creditWallet(ctx context.Context, tx pgx.Tx, lp lockedPayment) error {
	var creditID string
	err := tx.QueryRow(ctx, `
		INSERT INTO wallet_credits (id, payment_id, customer_id, amount, currency)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id
	`, lp.ID, lp.CustomerID, lp.Amount, lp.Currency).Scan(&creditID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Credit already recorded for this payment.
			return nil
		}
		return fmt.Errorf("failed to record wallet credit: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO wallets (customer_id, balance, currency, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (customer_id) DO UPDATE SET
			balance = wallets.balance + EXCLUDED.balance,
			updated_at = NOW()
	`, lp.CustomerID, lp.Amount, lp.Currency); err != nil {
		return fmt.Errorf("failed to apply wallet credit: %w", err)
	}

	return nil
}
