package service

import (
	"context"
	"encoding/json"

	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/ThreeDotsLabs/watermill/message"
)

// LedgerEventHandler consumes committed ledger events in process
type LedgerEventHandler struct {
	ServiceParams
}

func NewLedgerEventHandler(params ServiceParams) *LedgerEventHandler {
	return &LedgerEventHandler{ServiceParams: params}
}

// Handle drops the tenant's cached dashboard so the next read sees the change
func (h *LedgerEventHandler) Handle(msg *message.Message) error {
	var event types.LedgerEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// malformed payloads never become valid, acknowledge and move on
		h.Logger.Errorw("dropping malformed ledger event",
			"message_uuid", msg.UUID,
			"error", err,
		)
		h.Metrics.EventsHandled.WithLabelValues("unknown", "malformed").Inc()
		return nil
	}

	ctx := types.SetTenantID(context.Background(), event.TenantID)
	h.Cache.Delete(ctx, dashboardCacheKey(event.TenantID))

	h.Logger.Debugw("handled ledger event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"tenant_id", event.TenantID,
	)
	h.Metrics.EventsHandled.WithLabelValues(event.EventName, "ok").Inc()
	return nil
}
