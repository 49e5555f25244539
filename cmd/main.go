/**
 * @description
 * This is the main entry point for the RemindYourSubs backend. It is
 * responsible for initializing all components: configuration, database
 * connection, the email client, message broker, Redis, the application
 * services, the cron scheduler and the HTTP server. It wires everything
 * together and starts the service.
 */
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/remindyoursubs/backend/internal/api"
	"github.com/remindyoursubs/backend/internal/app"
	"github.com/remindyoursubs/backend/internal/config"
	"github.com/remindyoursubs/backend/internal/store"
	rysrabbit "github.com/remindyoursubs/backend/pkg/rabbitmq"
	"github.com/remindyoursubs/backend/pkg/resend"
)

const eventExchange = "remindyoursubs.events"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load a local .env file when present; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// The event producer is optional; the service runs without a broker.
	var producer app.EventPublisher
	if strings.TrimSpace(cfg.RabbitMQURL) != "" {
		p, err := rysrabbit.NewEventProducer(cfg.RabbitMQURL, eventExchange)
		if err != nil {
			logger.Warn("rabbitmq producer unavailable, events disabled", "error", err)
		} else {
			defer p.Close()
			producer = p
			logger.Info("rabbitmq producer connected", "exchange", eventExchange)
		}
	}

	// Redis backs the login rate limiter; the API degrades gracefully
	// without it.
	var loginLimiter *app.RedisLoginRateLimiter
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			logger.Warn("redis url parse failed, login rate limiting disabled", "error", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			pingErr := redisClient.Ping(pingCtx).Err()
			cancelPing()
			if pingErr != nil {
				logger.Warn("redis ping failed, login rate limiting disabled", "error", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				loginLimiter = app.NewRedisLoginRateLimiter(redisClient, "")
				logger.Info("redis connected, login rate limiting enabled")
			}
		}
	}

	repository := store.NewPostgresRepository(dbpool)
	emailClient := resend.NewClient(cfg.EmailFrom)

	userService := app.NewUserService(repository, logger, cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	subscriptionService := app.NewSubscriptionService(repository, logger)
	paymentMethodService := app.NewPaymentMethodService(repository, producer, logger)
	notificationService := app.NewNotificationService(repository, emailClient, logger, cfg.ResendAPIKey)

	// Start the cron scheduler for the reminder sweep and expiry scan.
	jobs := app.NewJobs(repository, notificationService, paymentMethodService, producer, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg)
	scheduler.Start()
	logger.Info("scheduler started")

	handler := api.NewHandler(
		userService,
		subscriptionService,
		paymentMethodService,
		notificationService,
		loginLimiter,
		cfg.LoginRateLimit,
		time.Duration(cfg.LoginRateWindowSecs)*time.Second,
		logger,
	)
	router := api.NewRouter(handler, cfg.JWTSecret)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("shutdown complete")
}
