package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
	pkgkafka "github.com/atikur-web-dev/shopeasy/pkg/kafka"
	"github.com/atikur-web-dev/shopeasy/pkg/logger"
)

// Kafka topics for storefront domain events.
const (
	TopicUserEvents  = "shopeasy.user.events"
	TopicCartEvents  = "shopeasy.cart.events"
	TopicOrderEvents = "shopeasy.order.events"
)

const source = "shopeasy-api"

// Producer publishes storefront domain events. Publishing is best-effort:
// callers log failures and continue, the request path never blocks on Kafka.
type Producer struct {
	producer *pkgkafka.Producer
	logger   *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(producer *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		producer: producer,
		logger:   logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	payload := map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
	}
	return p.publish(ctx, TopicUserEvents, "user.registered", user.ID, "user", payload)
}

// PublishCartUpdated publishes a cart.updated event with the full cart state.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	return p.publish(ctx, TopicCartEvents, "cart.updated", cart.UserID, "cart", cart)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	payload := map[string]string{"user_id": userID}
	return p.publish(ctx, TopicCartEvents, "cart.cleared", userID, "cart", payload)
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	payload := map[string]any{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount,
		"status":       order.Status,
	}
	return p.publish(ctx, TopicOrderEvents, "order.created", order.ID, "order", payload)
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order) error {
	payload := map[string]any{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	}
	return p.publish(ctx, TopicOrderEvents, "order.status_changed", order.ID, "order", payload)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}

	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	return p.producer.Publish(ctx, topic, evt)
}
