package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/honeynil/BrrowMarketplace/internal/api"
	"github.com/honeynil/BrrowMarketplace/internal/config"
	"github.com/honeynil/BrrowMarketplace/internal/handler"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/auth"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/payments"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/observability"
	core "github.com/honeynil/BrrowMarketplace/internal/repository/postgres"
	service "github.com/honeynil/BrrowMarketplace/internal/services"
	"github.com/honeynil/BrrowMarketplace/internal/worker"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, metricsHandler, err := observability.Setup(ctx, cfg, "brrow-marketplace")
	if err != nil {
		slog.Error("failed to initialise observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to open Postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		slog.Error("failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	if cfg.AutoMigrate {
		if err := core.Migrate(ctx, db); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	userRepo := core.NewPostgresUserRepository(db)
	listingRepo := core.NewPostgresListingRepository(db)
	purchaseRepo := core.NewPostgresPurchaseRepository(db)
	meetupRepo := core.NewPostgresMeetupRepository(db)
	offerRepo := core.NewPostgresOfferRepository(db)
	intentRepo := core.NewPostgresPaymentIntentRepository(db)
	earningsRepo := core.NewPostgresEarningsRepository(db)
	payoutRepo := core.NewPostgresPayoutRepository(db)

	redisClient, err := redis.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	gateway := payments.NewRedisGateway(redisClient)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	fees := cfg.Fees()

	h := handler.NewHandler(handler.Services{
		Auth:      service.NewAuthService(userRepo, redisClient, issuer),
		Listings:  service.NewListingService(listingRepo),
		Purchases: service.NewPurchaseService(purchaseRepo, listingRepo, meetupRepo, userRepo, gateway, producer, fees),
		Meetups: service.NewMeetupService(meetupRepo, purchaseRepo, redisClient, gateway, producer, service.MeetupOptions{
			ExpiryWindow: cfg.MeetupExpiryWindow,
			CodeTTL:      cfg.VerificationCodeTTL,
		}),
		Offers:   service.NewOfferService(offerRepo, listingRepo, producer, cfg.OfferTTL),
		Checkout: service.NewCheckoutService(listingRepo, userRepo, offerRepo, intentRepo, purchaseRepo, gateway, redisClient, producer, fees.Currency),
		Earnings: service.NewEarningsService(earningsRepo, payoutRepo, userRepo, redisClient, producer, cfg.EarningsCacheTTL),
	})

	for _, topic := range []string{models.TopicPurchases, models.TopicPayouts} {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, topic, cfg.KafkaGroupID, producer, earningsRepo, payoutRepo, redisClient, fees)
		go consumer.Consume(ctx)
		defer consumer.Close()
	}

	sweeper := worker.NewSweeper(meetupRepo, offerRepo, purchaseRepo, producer, cfg.SweepInterval)
	go sweeper.Run(ctx)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.SetupRouter(h, redisClient, issuer, metricsHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
