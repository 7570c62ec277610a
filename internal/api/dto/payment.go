package dto

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/domain/payment"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/RiveraMg/MiaBot/internal/validator"
	"github.com/samber/lo"
)

// RecordPaymentRequest records money received against a sent invoice
type RecordPaymentRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`

	// method defaults to CASH
	Method types.PaymentMethod `json:"method,omitempty"`

	// reference defaults to a generated receipt number
	Reference string `json:"reference,omitempty" validate:"max=100"`
	Notes     string `json:"notes,omitempty"`

	// idempotency_key makes retries of the same payment safe. The
	// Idempotency-Key header is used when the body omits it.
	IdempotencyKey *string `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
}

func (r *RecordPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Method == "" {
		r.Method = types.PaymentMethodCash
	}
	return r.Method.Validate()
}

func (r *RecordPaymentRequest) ToPayment(ctx context.Context, invoiceID string, now time.Time) *payment.Payment {
	reference := r.Reference
	if reference == "" {
		reference = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_RECEIPT)
	}
	return &payment.Payment{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		InvoiceID:      invoiceID,
		Amount:         r.Amount,
		Method:         lo.Ternary(r.Method == "", types.PaymentMethodCash, r.Method),
		Reference:      reference,
		Notes:          r.Notes,
		IdempotencyKey: r.IdempotencyKey,
		RecordedAt:     now,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

// RecordPaymentResponse carries the invoice position after the payment
type RecordPaymentResponse struct {
	Payment        *payment.Payment    `json:"payment"`
	InvoiceBalance int64               `json:"invoice_balance"`
	InvoiceStatus  types.InvoiceStatus `json:"invoice_status"`

	// replayed is true when an earlier request with the same idempotency key answered
	Replayed bool `json:"replayed"`
}

type ListPaymentsResponse struct {
	Items     []*payment.Payment `json:"items"`
	TotalPaid int64              `json:"total_paid"`
	InvoiceID string             `json:"invoice_id"`
}
