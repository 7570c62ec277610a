package invoice

import (
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
)

// LineItem is one priced entry of an invoice, immutable once the invoice leaves DRAFT
type LineItem struct {
	ID          string  `db:"id" json:"id"`
	InvoiceID   string  `db:"invoice_id" json:"invoice_id"`
	ProductID   *string `db:"product_id" json:"product_id,omitempty"`
	Description string  `db:"description" json:"description"`
	Quantity    int64   `db:"quantity" json:"quantity"`
	UnitPrice   int64   `db:"unit_price" json:"unit_price"`
	LineTotal   int64   `db:"line_total" json:"line_total"`

	types.BaseModel
}

func (li *LineItem) Validate(idx int) error {
	if li.Quantity < 1 {
		return ierr.NewError("line item quantity must be at least 1").
			WithHint("Quantity must be at least 1").
			WithReportableDetails(map[string]any{
				"field": "quantity",
				"index": idx,
				"value": li.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	if li.UnitPrice < 0 {
		return ierr.NewError("line item unit price cannot be negative").
			WithHint("Unit price cannot be negative").
			WithReportableDetails(map[string]any{
				"field": "unit_price",
				"index": idx,
				"value": li.UnitPrice,
			}).
			Mark(ierr.ErrValidation)
	}
	if li.ProductID == nil && li.Description == "" {
		return ierr.NewError("free text line item needs a description").
			WithHint("Description is required for items without a product").
			WithReportableDetails(map[string]any{
				"field": "description",
				"index": idx,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
