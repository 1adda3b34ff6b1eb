package cron

import (
	"context"
	"log/slog"

	"github.com/boutikplace/shop-backend-go/internal/config"
	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
)

// PaymentJobs contains payment-related cron jobs
type PaymentJobs struct {
	reconciler payment.Reconciler
	cfg        config.ResyncConfig
}

// NewPaymentJobs creates payment cron jobs
func NewPaymentJobs(reconciler payment.Reconciler, cfg config.ResyncConfig) *PaymentJobs {
	return &PaymentJobs{
		reconciler: reconciler,
		cfg:        cfg,
	}
}

// RegisterJobs registers all payment-related cron jobs
func (j *PaymentJobs) RegisterJobs(scheduler *Scheduler) {
	// Resolve payments stuck waiting for a webhook that never arrived
	scheduler.AddJob(
		"resync_stuck_payments",
		j.cfg.Interval,
		j.ResyncStuckPayments,
	)
}

// ResyncStuckPayments reconciles pending payments older than the
// configured age against the provider's source of truth.
func (j *PaymentJobs) ResyncStuckPayments(ctx context.Context) error {
	summary, err := j.reconciler.RunBatch(ctx, payment.ResyncFilter{
		MinAge: j.cfg.MinAge,
		Limit:  j.cfg.Limit,
	})
	if err != nil {
		return err
	}

	if len(summary.Outcomes) > 0 {
		slog.Info("Cron: payment resync finished",
			"run_id", summary.RunID,
			"completed", summary.Completed,
			"failed", summary.Failed,
			"pending", summary.Pending,
			"errors", summary.Errors,
		)
	}
	return nil
}
