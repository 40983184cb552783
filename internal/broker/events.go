package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"feature-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing pipeline domain events. Run lifecycle
// events and segment events go to separate topics.
type EventPublisher struct {
	runs     *Producer
	segments *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(runs, segments *Producer) *EventPublisher {
	return &EventPublisher{runs: runs, segments: segments}
}

// PublishRunCompleted publishes a FeatureRunCompleted event
func (ep *EventPublisher) PublishRunCompleted(ctx context.Context, event *models.FeatureRunCompletedEvent) error {
	key := fmt.Sprintf("run-%s", event.RunID)
	return ep.runs.PublishEvent(ctx, key, event)
}

// PublishRunFailed publishes a FeatureRunFailed event
func (ep *EventPublisher) PublishRunFailed(ctx context.Context, event *models.FeatureRunFailedEvent) error {
	key := fmt.Sprintf("run-%s", event.RunID)
	return ep.runs.PublishEvent(ctx, key, event)
}

// PublishCustomerSegmented publishes a CustomerSegmented event
func (ep *EventPublisher) PublishCustomerSegmented(ctx context.Context, event *models.CustomerSegmentedEvent) error {
	key := fmt.Sprintf("customer-%s", event.ExternalCustomerKey)
	return ep.segments.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming pipeline events
type EventHandler struct {
	onRunRequested   func(context.Context, *models.FeatureRunRequestedEvent) error
	onCustomerScored func(context.Context, *models.CustomerScoredEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnRunRequested registers a handler for FeatureRunRequested events
func (eh *EventHandler) OnRunRequested(handler func(context.Context, *models.FeatureRunRequestedEvent) error) {
	eh.onRunRequested = handler
}

// OnCustomerScored registers a handler for CustomerScored events
func (eh *EventHandler) OnCustomerScored(handler func(context.Context, *models.CustomerScoredEvent) error) {
	eh.onCustomerScored = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeRunRequested:
		if eh.onRunRequested != nil {
			var event models.FeatureRunRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal FeatureRunRequested event: %w", err)
			}
			return eh.onRunRequested(ctx, &event)
		}

	case models.EventTypeCustomerScored:
		if eh.onCustomerScored != nil {
			var event models.CustomerScoredEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CustomerScored event: %w", err)
			}
			return eh.onCustomerScored(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
