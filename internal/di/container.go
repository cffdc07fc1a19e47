package di

import (
	"github.com/prohmpiriya/storefront/internal/handler"
	"github.com/prohmpiriya/storefront/internal/metrics"
	"github.com/prohmpiriya/storefront/internal/middleware"
	"github.com/prohmpiriya/storefront/internal/repository"
	"github.com/prohmpiriya/storefront/internal/service"
	"github.com/prohmpiriya/storefront/internal/worker"
	"github.com/prohmpiriya/storefront/pkg/database"
	"github.com/prohmpiriya/storefront/pkg/redis"
)

// Container holds all dependencies for the storefront service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	PrincipalRepo repository.PrincipalRepository
	TokenRepo     repository.RefreshTokenRepository
	ProductRepo   repository.ProductRepository
	CartRepo      repository.CartRepository
	OrderRepo     repository.OrderRepository

	// Services
	AuthService    service.AuthService
	CatalogService service.CatalogService
	CartService    service.CartService
	OrderService   service.OrderService
	Publisher      service.EventPublisher

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware

	// Handlers
	HealthHandler  *handler.HealthHandler
	AuthHandler    *handler.AuthHandler
	ProductHandler *handler.ProductHandler
	CartHandler    *handler.CartHandler
	OrderHandler   *handler.OrderHandler

	// Workers
	TrackingWorker *worker.TrackingWorker
	TokenSweeper   *worker.TokenSweeper
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB        *database.PostgresDB
	Redis     *redis.Client
	Publisher service.EventPublisher
	Metrics   *metrics.Metrics

	AuthConfig     *service.AuthServiceConfig
	OrderConfig    *service.OrderServiceConfig
	TrackingConfig *worker.TrackingWorkerConfig
	SweeperConfig  *worker.TokenSweeperConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:        cfg.DB,
		Redis:     cfg.Redis,
		Publisher: cfg.Publisher,
	}

	// Initialize repositories
	pool := cfg.DB.Pool()
	c.PrincipalRepo = repository.NewPostgresPrincipalRepository(pool)
	c.TokenRepo = repository.NewPostgresRefreshTokenRepository(pool)
	c.ProductRepo = repository.NewPostgresProductRepository(pool)
	c.CartRepo = repository.NewPostgresCartRepository(pool)
	c.OrderRepo = repository.NewPostgresOrderRepository(pool)

	// Initialize services
	c.AuthService = service.NewAuthService(c.PrincipalRepo, c.TokenRepo, cfg.AuthConfig)
	c.CatalogService = service.NewCatalogService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.Publisher, cfg.Metrics, cfg.OrderConfig)

	// Initialize middleware
	c.AuthMiddleware = middleware.NewAuthMiddleware(c.AuthService)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.AuthHandler = handler.NewAuthHandler(c.AuthService, cfg.AuthConfig.RefreshTokenExpiry)
	c.ProductHandler = handler.NewProductHandler(c.CatalogService)
	c.CartHandler = handler.NewCartHandler(c.CartService)
	c.OrderHandler = handler.NewOrderHandler(c.OrderService)

	// Initialize workers
	c.TrackingWorker = worker.NewTrackingWorker(c.OrderRepo, cfg.TrackingConfig)
	c.TokenSweeper = worker.NewTokenSweeper(c.TokenRepo, cfg.SweeperConfig)

	return c
}
