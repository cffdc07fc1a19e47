package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/storefront/internal/di"
	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/metrics"
	"github.com/prohmpiriya/storefront/internal/service"
	"github.com/prohmpiriya/storefront/internal/worker"
	"github.com/prohmpiriya/storefront/pkg/config"
	"github.com/prohmpiriya/storefront/pkg/database"
	"github.com/prohmpiriya/storefront/pkg/kafka"
	"github.com/prohmpiriya/storefront/pkg/logger"
	"github.com/prohmpiriya/storefront/pkg/middleware"
	"github.com/prohmpiriya/storefront/pkg/redis"
	"github.com/prohmpiriya/storefront/pkg/telemetry"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Storefront...")

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Fatal(fmt.Sprintf("Telemetry init failed: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	// Apply migrations
	if err := database.Migrate(cfg.Database.URL(), migrationsFS, "migrations"); err != nil {
		appLog.Fatal(fmt.Sprintf("Migration failed: %v", err))
	}
	appLog.Info("Migrations applied")

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, &redis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Initialize Kafka publisher, falling back to no-op when disabled
	var publisher service.EventPublisher = service.NewNoopEventPublisher()
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:       cfg.Kafka.Brokers,
			ClientID:      cfg.Kafka.ClientID,
			MaxRetries:    3,
			RetryInterval: 1 * time.Second,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Kafka connection failed: %v", err))
		}
		defer producer.Close()
		publisher = service.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
		appLog.Info("Kafka connected")
	}

	// Register metric instruments
	m, err := metrics.New()
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:        db,
		Redis:     redisClient,
		Publisher: publisher,
		Metrics:   m,
		AuthConfig: &service.AuthServiceConfig{
			JWTSecret:          cfg.JWT.Secret,
			Issuer:             cfg.JWT.Issuer,
			AccessTokenExpiry:  cfg.JWT.AccessTokenTTL,
			RefreshTokenExpiry: cfg.JWT.RefreshTokenTTL,
			BcryptCost:         cfg.JWT.BcryptCost,
		},
		OrderConfig: &service.OrderServiceConfig{
			CheckoutTimeout: cfg.Checkout.Timeout,
		},
		TrackingConfig: &worker.TrackingWorkerConfig{
			AdvanceInterval: cfg.Tracking.AdvanceInterval,
			BatchSize:       cfg.Tracking.BatchSize,
		},
		SweeperConfig: &worker.TokenSweeperConfig{
			SweepInterval: cfg.JWT.SweepInterval,
		},
	})

	// Start the background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	go container.TrackingWorker.Start(workerCtx)
	go container.TokenSweeper.Start(workerCtx)

	// Setup Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	authn := container.AuthMiddleware

	// Auth endpoints
	auth := router.Group("/auth")
	{
		auth.POST("/register", container.AuthHandler.Register)
		auth.POST("/login", container.AuthHandler.Login)
		auth.POST("/refresh", container.AuthHandler.Refresh)
		auth.POST("/logout", container.AuthHandler.Logout)
		auth.GET("/me", authn.Authenticate(), container.AuthHandler.Me)
	}

	// Account administration (super operator only)
	users := router.Group("/users")
	users.Use(authn.Authenticate(), authn.RequireRole(domain.RoleSuperOperator))
	{
		users.PATCH("/:id/ban", container.AuthHandler.Ban)
		users.PATCH("/:id/unban", container.AuthHandler.Unban)
		users.PATCH("/:id/deactivate", container.AuthHandler.Deactivate)
		users.PATCH("/:id/activate", container.AuthHandler.Activate)
	}

	// Catalog: reads are public, writes are operator-only
	products := router.Group("/products")
	{
		products.GET("", container.ProductHandler.List)
		products.GET("/:id", container.ProductHandler.Get)

		writes := products.Group("")
		writes.Use(authn.Authenticate(), authn.RequireRole(domain.RoleOperator, domain.RoleSuperOperator))
		{
			writes.POST("", container.ProductHandler.Create)
			writes.PATCH("/:id", container.ProductHandler.Update)
		}
	}

	// Cart endpoints
	cart := router.Group("/cart")
	cart.Use(authn.Authenticate())
	{
		cart.GET("", container.CartHandler.Get)
		cart.POST("", container.CartHandler.UpsertItem)
		cart.DELETE("", container.CartHandler.Clear)
		cart.DELETE("/:product_id", container.CartHandler.RemoveItem)
	}

	// Order endpoints
	orders := router.Group("/orders")
	orders.Use(authn.Authenticate())
	{
		orders.POST("/checkout",
			middleware.Idempotency(&middleware.IdempotencyConfig{
				Redis:        redisClient.Client(),
				PrincipalKey: "principal_id",
			}),
			container.OrderHandler.Checkout,
		)
		orders.GET("/me", container.OrderHandler.ListMine)
		orders.GET("/:id", container.OrderHandler.Get)

		orders.GET("",
			authn.RequireRole(domain.RoleOperator, domain.RoleSuperOperator),
			container.OrderHandler.List,
		)

		orders.PATCH("/:id/status",
			authn.RequireRole(domain.RoleOperator, domain.RoleSuperOperator),
			container.OrderHandler.UpdateStatus,
		)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Storefront listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Stop the background workers first so they cannot race the pool close
	stopWorkers()
	<-container.TrackingWorker.Done()
	<-container.TokenSweeper.Done()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
