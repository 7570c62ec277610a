package types

import (
	"encoding/json"
	"time"
)

// LedgerEvent is published after a ledger mutation commits
type LedgerEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	EventInvoiceCreated   = "invoice.created"
	EventInvoiceUpdated   = "invoice.updated"
	EventInvoiceSent      = "invoice.sent"
	EventInvoicePaid      = "invoice.paid"
	EventInvoiceCancelled = "invoice.cancelled"
	EventPaymentRecorded  = "payment.recorded"
	EventStockAdjusted    = "stock.adjusted"
)
