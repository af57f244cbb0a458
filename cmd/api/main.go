package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/payment"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい（本番は環境変数）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront checkout service")

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	discountRepo := infraRepo.NewDiscountCodeGormRepository(gormDB)
	pendingRepo := infraRepo.NewPendingCheckoutGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	anomalyRepo := infraRepo.NewCheckoutAnomalyGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//決済プロバイダ
	provider := payment.NewStripeProvider(cfg.StripeSecretKey)
	verifier := payment.NewStripeVerifier(cfg.StripeWebhookSecret)

	clock := usecase.SystemClock()

	//Usecase
	builder := usecase.NewCartSnapshotBuilder(cartItemRepo, discountRepo, userRepo, clock, logger)
	checkoutUC := usecase.NewCheckoutUsecase(
		builder, pendingRepo, anomalyRepo, provider,
		usecase.UUIDGenerator(), clock,
		usecase.CheckoutConfig{
			Currency:        cfg.Currency,
			SuccessURL:      cfg.SuccessURL(),
			CancelURL:       cfg.CancelURL(),
			ProviderTimeout: cfg.ProviderTimeout,
		},
		logger,
	)
	webhookUC := usecase.NewWebhookUsecase(verifier, txm, pendingRepo, anomalyRepo, cfg.ReconcileTimeout, clock, logger)
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo)
	anomalyUC := usecase.NewAnomalyUsecase(anomalyRepo)

	//Handler
	h := server.Handlers{
		Health:   handler.NewHealthHandler(func(ctx context.Context) error { return sqlDB.PingContext(ctx) }),
		Cart:     handler.NewCartHandler(cartUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Webhook:  handler.NewWebhookHandler(webhookUC),
		Order:    handler.NewOrderHandler(orderUC),
		Anomaly:  handler.NewAdminAnomalyHandler(anomalyUC),
	}

	e := server.New(cfg, logger, userRepo, h)
	return server.Run(e, cfg.Addr(), logger)
}
