package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/selfydev/selfy-backend/api/routes"
	"github.com/selfydev/selfy-backend/internal/bookings"
	"github.com/selfydev/selfy-backend/internal/credits"
	"github.com/selfydev/selfy-backend/internal/notifications"
	"github.com/selfydev/selfy-backend/internal/payments"
	"github.com/selfydev/selfy-backend/internal/seats"
	"github.com/selfydev/selfy-backend/internal/timeline"
	"github.com/selfydev/selfy-backend/pkg/config"
	"github.com/selfydev/selfy-backend/pkg/db"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/metrics"
	"github.com/selfydev/selfy-backend/pkg/migrate"
	"github.com/selfydev/selfy-backend/pkg/outbox"
	"github.com/selfydev/selfy-backend/pkg/outbox/idempotency"
	"github.com/selfydev/selfy-backend/pkg/pubsub"
	"github.com/selfydev/selfy-backend/pkg/redis"
	"github.com/selfydev/selfy-backend/pkg/square"
)

const shutdownGrace = 15 * time.Second

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
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	squareClient, err := square.NewClient(ctx, cfg.Square, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap square", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	timelineSvc, err := timeline.NewService(timeline.NewRepository(gormDB))
	if err != nil {
		logg.Error(ctx, "failed to create timeline service", err)
		os.Exit(1)
	}

	creditsSvc, err := credits.NewService(credits.NewRepository(gormDB))
	if err != nil {
		logg.Error(ctx, "failed to create credits service", err)
		os.Exit(1)
	}

	seatsRepo := seats.NewRepository(gormDB)
	seatsSvc, err := seats.NewService(seatsRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(ctx, "failed to create seats service", err)
		os.Exit(1)
	}

	bookingsSvc, err := bookings.NewService(
		bookings.NewRepository(gormDB),
		dbClient,
		outboxSvc,
		creditsSvc,
		timelineSvc,
		seatsRepo,
		bookingMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create bookings service", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(
		payments.NewRepository(gormDB),
		bookingsSvc,
		dbClient,
		outboxSvc,
		timelineSvc,
		squareClient,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create payments service", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(gormDB)
	notificationsSvc, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	idemManager, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := notifications.NewConsumer(notificationsRepo, pubsubClient.BookingSubscription(), idemManager, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notifications consumer", err)
		os.Exit(1)
	}
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "notifications consumer stopped unexpectedly", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			bookingsSvc,
			paymentsSvc,
			seatsSvc,
			notificationsSvc,
			creditsSvc,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(context.Background(), "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(context.Background(), "api server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
