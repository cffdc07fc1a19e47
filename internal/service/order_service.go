package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/metrics"
	"github.com/prohmpiriya/storefront/internal/repository"
	"github.com/prohmpiriya/storefront/pkg/logger"
	"github.com/prohmpiriya/storefront/pkg/telemetry"
)

// ErrOrderAccessDenied is returned when a client touches an order that
// is not theirs
var ErrOrderAccessDenied = errors.New("order access denied")

// OrderServiceConfig holds configuration for OrderService
type OrderServiceConfig struct {
	// CheckoutTimeout bounds the checkout transaction
	CheckoutTimeout time.Duration
}

// OrderService defines the interface for order operations
type OrderService interface {
	// Checkout converts the caller's cart into an order
	Checkout(ctx context.Context, principalID string, req *dto.CheckoutRequest) (*domain.Order, error)
	// GetOrder retrieves an order; clients may only see their own
	GetOrder(ctx context.Context, principalID string, role domain.Role, orderID string) (*domain.Order, error)
	// ListOrders retrieves the caller's orders, newest first
	ListOrders(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error)
	// ListAllOrders retrieves orders across all principals (operator only)
	ListAllOrders(ctx context.Context, limit, offset int) ([]*domain.Order, error)
	// SetStatus transitions an order to a new status (operator only)
	SetStatus(ctx context.Context, orderID string, req *dto.UpdateOrderStatusRequest) (*domain.Order, error)
}

// orderService implements OrderService
type orderService struct {
	orderRepo repository.OrderRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	config    *OrderServiceConfig
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	publisher EventPublisher,
	m *metrics.Metrics,
	config *OrderServiceConfig,
) OrderService {
	if config.CheckoutTimeout == 0 {
		config.CheckoutTimeout = 10 * time.Second
	}
	return &orderService{
		orderRepo: orderRepo,
		publisher: publisher,
		metrics:   m,
		config:    config,
	}
}

// Checkout converts the caller's cart into an order. The whole
// transaction runs under a deadline so a stuck lock cannot pin the
// request forever.
func (s *orderService) Checkout(ctx context.Context, principalID string, req *dto.CheckoutRequest) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	txCtx, cancel := context.WithTimeout(ctx, s.config.CheckoutTimeout)
	defer cancel()

	order := &domain.Order{
		ID:              uuid.New().String(),
		PrincipalID:     principalID,
		ShippingAddress: req.ShippingAddress,
		PaymentRef:      req.PaymentRef,
	}

	start := time.Now()
	created, err := s.orderRepo.Checkout(txCtx, principalID, order)
	elapsed := float64(time.Since(start).Milliseconds())

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEmptyCart):
		outcome = "empty_cart"
	case errors.Is(err, domain.ErrInsufficientStock):
		outcome = "insufficient_stock"
	default:
		outcome = "error"
	}
	s.metrics.CheckoutTotal.Inc(ctx, attribute.String("outcome", outcome))
	s.metrics.CheckoutDuration.Record(ctx, elapsed, attribute.String("outcome", outcome))

	if err != nil {
		return nil, err
	}

	logger.Get().Info("checkout completed",
		zap.String("order_id", created.ID),
		zap.String("principal_id", principalID),
		zap.Float64("total", created.Total),
		zap.Int("items", len(created.Items)),
	)

	s.publisher.OrderCreated(ctx, created)
	return created, nil
}

// GetOrder retrieves an order. Clients only see their own orders;
// operators see everything.
func (s *orderService) GetOrder(ctx context.Context, principalID string, role domain.Role, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PrincipalID != principalID && !role.IsOperator() {
		return nil, ErrOrderAccessDenied
	}

	return order, nil
}

// ListOrders retrieves the caller's orders, newest first
func (s *orderService) ListOrders(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.ListByPrincipal(ctx, principalID, limit, offset)
}

// ListAllOrders retrieves orders across all principals, newest first.
// Role gating happens at the route; the service does not re-check.
func (s *orderService) ListAllOrders(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.ListAll(ctx, limit, offset)
}

// SetStatus transitions an order to a new status. The repository update
// is conditional on the status read here, so a concurrent transition
// surfaces as domain.ErrStatusConflict rather than silently winning.
func (s *orderService) SetStatus(ctx context.Context, orderID string, req *dto.UpdateOrderStatusRequest) (*domain.Order, error) {
	to := domain.OrderStatus(req.Status)
	if !to.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !from.CanTransitionTo(to) {
		return nil, &domain.StatusTransitionError{From: from, To: to}
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, from, to); err != nil {
		return nil, err
	}

	s.metrics.OrdersByStatus.Inc(ctx, attribute.String("to", to.String()))

	logger.Get().Info("order status changed",
		zap.String("order_id", orderID),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)

	s.publisher.OrderStatusChanged(ctx, orderID, from, to)

	order.Status = to
	return order, nil
}
