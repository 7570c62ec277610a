package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RiveraMg/MiaBot/internal/config"
	"github.com/RiveraMg/MiaBot/internal/idempotency"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/pubsub"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher emits ledger events once the mutation behind them has committed
type EventPublisher interface {
	// Publish emits an event about an entity. The version distinguishes
	// successive events on the same entity; redeliveries share an id.
	Publish(ctx context.Context, eventName, entityID string, version int, payload interface{}) error
	Close() error
}

type eventPublisher struct {
	pubSub    pubsub.PubSub
	config    *config.EventsConfig
	generator *idempotency.Generator
	logger    *logger.Logger
}

func NewEventPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) EventPublisher {
	return &eventPublisher{
		pubSub:    pubSub,
		config:    &cfg.Events,
		generator: idempotency.NewGenerator(),
		logger:    logger,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, eventName, entityID string, version int, payload interface{}) error {
	if !p.config.Enabled {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &types.LedgerEvent{
		ID: p.generator.GenerateKey(idempotency.ScopeLedgerEvent, map[string]interface{}{
			"tenant_id":  types.GetTenantID(ctx),
			"event_name": eventName,
			"entity_id":  entityID,
			"version":    version,
		}),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   body,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID, data)
	msg.Metadata.Set("tenant_id", event.TenantID)
	msg.Metadata.Set("event_name", event.EventName)

	p.logger.Debugw("publishing ledger event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"tenant_id", event.TenantID,
		"topic", p.config.Topic,
	)

	// detached from the request so a finished response does not drop the event
	if err := p.pubSub.Publish(context.WithoutCancel(ctx), p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish ledger event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
			"tenant_id", event.TenantID,
		)
		return err
	}
	return nil
}

func (p *eventPublisher) Close() error {
	return p.pubSub.Close()
}
