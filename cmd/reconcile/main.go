package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boutikplace/shop-backend-go/internal/config"
	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	"github.com/boutikplace/shop-backend-go/internal/pkg/cinetpay"
	"github.com/boutikplace/shop-backend-go/internal/pkg/database"
	"github.com/boutikplace/shop-backend-go/internal/pkg/fedapay"
	"github.com/boutikplace/shop-backend-go/internal/repository/postgresql"
	reconcileService "github.com/boutikplace/shop-backend-go/internal/service/reconcile"
)

// reconcile resolves payments stuck in pending by querying the
// provider's authoritative transaction status. It exits non-zero when
// any payment in the batch errored, so schedulers can alert on it.
func main() {
	minAge := flag.Int("min-age", 30, "only resync payments older than this many minutes")
	limit := flag.Int("limit", 100, "maximum number of payments per batch")
	method := flag.String("method", "", "restrict to one payment method (fedapay or cinetpay)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With(
		slog.String("app", "boutikplace-payments"),
		slog.String("cmd", "reconcile"),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error connecting to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	filter := payment.ResyncFilter{
		MinAge: time.Duration(*minAge) * time.Minute,
		Limit:  *limit,
	}
	if *method != "" {
		m, ok := payment.ParseMethod(*method)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown payment method %q\n", *method)
			os.Exit(2)
		}
		filter.Method = &m
	}

	ledger := postgresql.NewPaymentLedger(db)
	orderRepo := postgresql.NewOrderRepository(db)
	gateways := map[payment.Method]payment.GatewayClient{
		payment.MethodFedaPay:  fedapay.NewClient(cfg.FedaPay),
		payment.MethodCinetPay: cinetpay.NewClient(cfg.CinetPay),
	}
	reconciler := reconcileService.NewEngine(ledger, orderRepo, gateways, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := reconciler.RunBatch(ctx, filter)
	if err != nil {
		logger.Error("resync batch aborted", "error", err)
		os.Exit(1)
	}

	fmt.Printf("resync %s: completed=%d failed=%d pending=%d errors=%d\n",
		summary.RunID, summary.Completed, summary.Failed, summary.Pending, summary.Errors)

	if summary.Errors > 0 {
		os.Exit(1)
	}
}
