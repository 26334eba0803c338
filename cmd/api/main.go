package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/stadiumcard/stadiumcard-backend/api/routes"
	"github.com/stadiumcard/stadiumcard-backend/internal/balance"
	"github.com/stadiumcard/stadiumcard-backend/internal/fees"
	"github.com/stadiumcard/stadiumcard-backend/internal/mailer"
	"github.com/stadiumcard/stadiumcard-backend/internal/orders"
	"github.com/stadiumcard/stadiumcard-backend/internal/payouts"
	"github.com/stadiumcard/stadiumcard-backend/internal/profiles"
	stripewebhook "github.com/stadiumcard/stadiumcard-backend/internal/webhooks/stripe"
	"github.com/stadiumcard/stadiumcard-backend/pkg/config"
	"github.com/stadiumcard/stadiumcard-backend/pkg/db"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
	"github.com/stadiumcard/stadiumcard-backend/pkg/migrate"
	"github.com/stadiumcard/stadiumcard-backend/pkg/redis"
	"github.com/stadiumcard/stadiumcard-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sender := mailer.NewSender(cfg.Resend, logg)
	feeSchedule := fees.NewSchedule(cfg.Fees)
	feeRate := fees.ResolveRate(cfg.Fees.PlatformFeeRate)

	profilesRepo := profiles.NewRepository(dbClient.DB())
	profilesSvc, err := profiles.NewService(profilesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create profiles service", err)
		os.Exit(1)
	}

	balanceSvc, err := balance.NewService(balance.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create balance service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, profilesRepo, sender, logg, feeRate)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	payoutsSvc, err := payouts.NewService(
		payouts.NewRepository(dbClient.DB()),
		dbClient,
		balanceSvc,
		feeSchedule,
		profilesRepo,
		sender,
		cfg.Resend.AdminRecipients(),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookEventTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}
	stripeWebhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Store:             stripewebhook.NewOrderStore(dbClient.DB()),
		TransactionRunner: dbClient,
		Guard:             webhookGuard,
		Profiles:          profilesRepo,
		Sender:            sender,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, profilesSvc, ordersSvc, balanceSvc, payoutsSvc, stripeClient, stripeWebhookSvc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
