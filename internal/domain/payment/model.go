package payment

import (
	"time"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// Payment is an append-only ledger entry against an invoice
type Payment struct {
	ID             string              `db:"id" json:"id"`
	InvoiceID      string              `db:"invoice_id" json:"invoice_id"`
	Amount         int64               `db:"amount" json:"amount"`
	Method         types.PaymentMethod `db:"method" json:"method"`
	Reference      string              `db:"reference" json:"reference"`
	Notes          string              `db:"notes" json:"notes"`
	IdempotencyKey *string             `db:"idempotency_key" json:"idempotency_key,omitempty"`
	RecordedAt     time.Time           `db:"recorded_at" json:"recorded_at"`

	types.BaseModel
}

func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return ierr.NewError("invoice_id is required").
			WithHint("Invoice is required").
			Mark(ierr.ErrValidation)
	}
	if p.Amount <= 0 {
		return ierr.NewError("payment amount must be positive").
			WithHint("Payment amount must be greater than zero").
			WithReportableDetails(map[string]any{
				"field": "amount",
				"value": p.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return p.Method.Validate()
}

// Sum returns the total amount of the given payments
func Sum(payments []*Payment) int64 {
	return lo.SumBy(payments, func(p *Payment) int64 { return p.Amount })
}
