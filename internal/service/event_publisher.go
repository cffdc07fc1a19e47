package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/pkg/kafka"
	"github.com/prohmpiriya/storefront/pkg/logger"
)

const defaultOrdersTopic = "order-events"

// EventPublisher publishes order lifecycle events. Publishing happens
// after the database transaction commits; a publish failure is logged
// but never fails the request.
type EventPublisher interface {
	// OrderCreated announces a freshly checked-out order
	OrderCreated(ctx context.Context, order *domain.Order)
	// OrderStatusChanged announces a status transition
	OrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus)
}

// orderCreatedEvent is the wire payload for order.created
type orderCreatedEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	PrincipalID string    `json:"principal_id"`
	Total       float64   `json:"total"`
	ItemCount   int       `json:"item_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// orderStatusChangedEvent is the wire payload for order.status_changed
type orderStatusChangedEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaEventPublisher publishes events to Kafka, keyed by order ID so
// events for one order stay ordered within a partition
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a new KafkaEventPublisher
func NewKafkaEventPublisher(producer *kafka.Producer, topic string) *KafkaEventPublisher {
	if topic == "" {
		topic = defaultOrdersTopic
	}
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// OrderCreated announces a freshly checked-out order
func (p *KafkaEventPublisher) OrderCreated(ctx context.Context, order *domain.Order) {
	event := orderCreatedEvent{
		Type:        "order.created",
		OrderID:     order.ID,
		PrincipalID: order.PrincipalID,
		Total:       order.Total,
		ItemCount:   len(order.Items),
		OccurredAt:  time.Now(),
	}
	p.publish(ctx, order.ID, event)
}

// OrderStatusChanged announces a status transition
func (p *KafkaEventPublisher) OrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus) {
	event := orderStatusChangedEvent{
		Type:       "order.status_changed",
		OrderID:    orderID,
		From:       from.String(),
		To:         to.String(),
		OccurredAt: time.Now(),
	}
	p.publish(ctx, orderID, event)
}

func (p *KafkaEventPublisher) publish(ctx context.Context, key string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Get().Error("failed to marshal order event", zap.Error(err))
		return
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(key), payload); err != nil {
		logger.Get().Error("failed to publish order event",
			zap.String("order_id", key),
			zap.Error(err),
		)
	}
}

// NoopEventPublisher drops all events. Used when Kafka is disabled.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new NoopEventPublisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

func (p *NoopEventPublisher) OrderCreated(ctx context.Context, order *domain.Order) {}

func (p *NoopEventPublisher) OrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus) {
}

var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*NoopEventPublisher)(nil)
)
