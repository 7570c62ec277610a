package payment

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/types"
)

// Repository persists payments. There is no update or delete.
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	List(ctx context.Context, filter *types.PaymentFilter) ([]*Payment, error)

	// GetByIdempotencyKey returns NotFound when no payment carries the key
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)

	// SumByInvoices returns the paid amount per invoice id, missing ids have paid nothing
	SumByInvoices(ctx context.Context, invoiceIDs []string) (map[string]int64, error)
}
