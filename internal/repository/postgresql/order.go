package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	"github.com/boutikplace/shop-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type orderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) payment.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (payment.Order, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, customer_id, status, total, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o payment.Order
	err := q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.CustomerID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment.Order{}, payment.ErrOrderNotFound
		}
		return payment.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}
