package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/boutikplace/shop-backend-go/internal/config"
	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	appHTTP "github.com/boutikplace/shop-backend-go/internal/handler/http"
	"github.com/boutikplace/shop-backend-go/internal/pkg/cinetpay"
	"github.com/boutikplace/shop-backend-go/internal/pkg/cron"
	"github.com/boutikplace/shop-backend-go/internal/pkg/database"
	"github.com/boutikplace/shop-backend-go/internal/pkg/fedapay"
	"github.com/boutikplace/shop-backend-go/internal/pkg/jwt"
	"github.com/boutikplace/shop-backend-go/internal/pkg/signature"
	"github.com/boutikplace/shop-backend-go/internal/repository/postgresql"
	paymentService "github.com/boutikplace/shop-backend-go/internal/service/payment"
	reconcileService "github.com/boutikplace/shop-backend-go/internal/service/reconcile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "boutikplace-payments"),
		slog.String("env", cfg.App.Env),
	)

	ledger := postgresql.NewPaymentLedger(db)
	orderRepo := postgresql.NewOrderRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)

	gateways := map[payment.Method]payment.GatewayClient{
		payment.MethodFedaPay:  fedapay.NewClient(cfg.FedaPay),
		payment.MethodCinetPay: cinetpay.NewClient(cfg.CinetPay),
	}

	paymentSvc := paymentService.NewPaymentService(ledger, gateways, logger)
	reconciler := reconcileService.NewEngine(ledger, orderRepo, gateways, logger)

	fedaPayVerifier := signature.NewVerifier(cfg.Webhook.FedaPaySecret, cfg.Webhook.ToleranceSeconds, logger)
	cinetPayVerifier := signature.NewVerifier(cfg.Webhook.CinetPaySecret, cfg.Webhook.ToleranceSeconds, logger)

	webhookHandler := appHTTP.NewWebhookHandler(paymentSvc, fedaPayVerifier, cinetPayVerifier)
	reconcileHandler := appHTTP.NewReconcileHandler(reconciler)

	scheduler := cron.NewScheduler()
	cron.NewPaymentJobs(reconciler, cfg.Resync).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		JWTService,
		webhookHandler,
		reconcileHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
