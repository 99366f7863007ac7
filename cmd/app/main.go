// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servido-backend/internal/config"
	pg "servido-backend/internal/infra/db/postgres"
	"servido-backend/internal/infra/logging"
	"servido-backend/internal/infra/metrics"
	mp "servido-backend/internal/infra/payment"
	red "servido-backend/internal/infra/redis"
	"servido-backend/internal/infra/sched"
	"servido-backend/internal/infra/web"
	"servido-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, sandbox checkout)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	productRepo := pg.NewProductRepo(pool)
	serviceRepo := pg.NewServiceRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	pendingRepo := pg.NewPendingPurchaseRepo(pool)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	failedRepo := pg.NewFailedPurchaseRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	txnRepo := pg.NewTransactionRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment gateways (one per credential set) ----
	sandbox := cfg.Payment.MercadoPago.Sandbox || cfg.Runtime.Dev
	productGW, err := mp.NewMercadoPagoGateway(cfg.Payment.MercadoPago.Products.AccessToken, sandbox, cfg.Payment.MercadoPago.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("mercadopago products gateway")
	}
	subGW, err := mp.NewMercadoPagoGateway(cfg.Payment.MercadoPago.Subscriptions.AccessToken, sandbox, cfg.Payment.MercadoPago.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("mercadopago subscriptions gateway")
	}

	checkoutURLs := usecase.CheckoutURLs{
		Notification:  cfg.Server.BaseURL + "/api/mercadopago/webhooks",
		SuccessReturn: cfg.Server.FrontendURL + "/checkout/success",
		FailureReturn: cfg.Server.FrontendURL + "/checkout/failure",
		PendingReturn: cfg.Server.FrontendURL + "/checkout/pending",
	}
	subscriptionURLs := usecase.CheckoutURLs{
		Notification:  cfg.Server.BaseURL + "/api/mercadopago/subscription/webhooks",
		SuccessReturn: cfg.Server.FrontendURL + "/subscription/success",
		FailureReturn: cfg.Server.FrontendURL + "/subscription/failure",
	}

	// ---- Use cases ----
	catalogUC := usecase.NewCatalogUseCase(productRepo, serviceRepo, logger)
	userUC := usecase.NewUserUseCase(userRepo, logger)
	checkoutUC := usecase.NewCheckoutUseCase(productRepo, pendingRepo, purchaseRepo, failedRepo, productGW, checkoutURLs, logger)
	subUC := usecase.NewSubscriptionUseCase(userRepo, subRepo, txnRepo, subGW, subscriptionURLs, logger)
	webhookUC := usecase.NewWebhookUseCase(productGW, subGW, pendingRepo, purchaseRepo, failedRepo, productRepo, subUC, locker, txManager, logger)

	// ---- HTTP server ----
	metrics.MustRegister()
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, 24*time.Hour)
	srv := web.NewServer(checkoutUC, webhookUC, subUC, catalogUC, userUC, auth, cfg.Server.AllowedOrigins, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.ExpirySweepInterval, subUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
