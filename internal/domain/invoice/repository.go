package invoice

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/types"
)

// Repository defines the interface for invoice persistence operations.
// Every method is scoped to the tenant in ctx.
type Repository interface {
	// Create inserts the invoice and its line items
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice with its line items
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetForUpdate is Get holding a row lock until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (*Invoice, error)

	// Update writes the mutable invoice columns, failing on a stale version
	Update(ctx context.Context, invoice *Invoice) error

	// ReplaceLineItems swaps the line items of a draft invoice
	ReplaceLineItems(ctx context.Context, invoice *Invoice) error

	// List retrieves invoices without line items
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the number of invoices matching the filter
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)

	// GetNextInvoiceNumber atomically increments and returns the tenant counter
	GetNextInvoiceNumber(ctx context.Context) (int64, error)
}
