package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-admin/internal/models"
	"catalog-admin/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing catalog domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishProductUpserted publishes a ProductUpserted event
func (ep *EventPublisher) PublishProductUpserted(ctx context.Context, event *models.ProductUpsertedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishProductDeleted publishes a ProductDeleted event
func (ep *EventPublisher) PublishProductDeleted(ctx context.Context, event *models.ProductDeletedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishIndexRegenerated publishes an IndexRegenerated event
func (ep *EventPublisher) PublishIndexRegenerated(ctx context.Context, event *models.IndexRegeneratedEvent) error {
	return ep.producer.PublishEvent(ctx, "indices", event)
}

// PublishImagesCleaned publishes an ImagesCleaned event
func (ep *EventPublisher) PublishImagesCleaned(ctx context.Context, event *models.ImagesCleanedEvent) error {
	return ep.producer.PublishEvent(ctx, "images", event)
}

// EventHandler routes incoming catalog events
type EventHandler struct {
	onProductUpserted func(context.Context, *models.ProductUpsertedEvent) error
	onProductDeleted  func(context.Context, *models.ProductDeletedEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnProductUpserted registers a handler for ProductUpserted events
func (eh *EventHandler) OnProductUpserted(handler func(context.Context, *models.ProductUpsertedEvent) error) {
	eh.onProductUpserted = handler
}

// OnProductDeleted registers a handler for ProductDeleted events
func (eh *EventHandler) OnProductDeleted(handler func(context.Context, *models.ProductDeletedEvent) error) {
	eh.onProductDeleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeProductUpserted:
		if eh.onProductUpserted != nil {
			var event models.ProductUpsertedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductUpserted event: %w", err)
			}
			return eh.onProductUpserted(ctx, &event)
		}

	case models.EventTypeProductDeleted:
		if eh.onProductDeleted != nil {
			var event models.ProductDeletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductDeleted event: %w", err)
			}
			return eh.onProductDeleted(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
