package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/RiveraMg/MiaBot/internal/publisher"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// InMemoryEventPublisher records published ledger events for assertions
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*types.LedgerEvent
	err    error
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, eventName, entityID string, version int, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.events = append(p.events, &types.LedgerEvent{
		ID:        entityID,
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Payload:   body,
	})
	return nil
}

// FailWith makes every later Publish return err
func (p *InMemoryEventPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Events returns the recorded events, optionally only those with the given names
func (p *InMemoryEventPublisher) Events(names ...string) []*types.LedgerEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(names) == 0 {
		return append([]*types.LedgerEvent(nil), p.events...)
	}
	return lo.Filter(p.events, func(e *types.LedgerEvent, _ int) bool {
		return lo.Contains(names, e.EventName)
	})
}

func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.err = nil
}

func (p *InMemoryEventPublisher) Close() error {
	return nil
}
