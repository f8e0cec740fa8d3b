package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
	"storefront/pkg/tokenstore"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	// --- Database ---
	db, err := database.Open(cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		log.Info("Database schema migrated", zap.String("driver", cfg.Database.Driver))
	}

	// --- Session revocation store ---
	var tokens tokenstore.Store = tokenstore.NewMemoryStore()
	checks := map[string]func(ctx context.Context) error{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if cfg.Redis.Addr != "" {
		redisStore, err := tokenstore.NewRedisStore(ctx, tokenstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer redisStore.Close()
		tokens = redisStore
		checks["redis"] = func(ctx context.Context) error {
			_, err := redisStore.IsRevoked(ctx, "healthcheck")
			return err
		}
		log.Info("Using Redis token store", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Info("Using in-memory token store")
	}

	// --- Order events ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQ.URL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, log.Named("rabbitmq"))
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		publisher = mqClient
		if err := mqClient.ConsumeOrderEvents(app.OrderEventLogger(log.Named("order-events"))); err != nil {
			log.Warn("Failed to start RabbitMQ consumer", zap.Error(err))
		}
	} else {
		log.Info("RABBITMQ_URL not set, order events are disabled")
	}

	// --- Repositories, services and HTTP app ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	server := app.New(app.Deps{
		Logger:         log,
		AuthService:    services.NewAuthService(userRepo, tokens, cfg.JWT.Secret, cfg.JWT.Expiration),
		ProductService: services.NewProductService(productRepo),
		OrderService:   services.NewOrderService(orderRepo, publisher),
		Checks:         checks,
	})

	// --- Start HTTP Server ---
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		serverErr <- server.Listen(cfg.App.Port)
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn("Error during Fiber shutdown", zap.Error(err))
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			log.Warn("Error closing RabbitMQ client", zap.Error(err))
		}
	}

	log.Info("Server gracefully stopped")
	return nil
}
