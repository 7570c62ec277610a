package dto

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	"github.com/RiveraMg/MiaBot/internal/domain/settings"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/RiveraMg/MiaBot/internal/validator"
	"github.com/samber/lo"
)

// CreateInvoiceRequest represents the request payload for creating a new invoice
type CreateInvoiceRequest struct {
	// client_id is the client being billed
	ClientID string `json:"client_id" validate:"required"`

	// issue_date defaults to now
	IssueDate *time.Time `json:"issue_date,omitempty"`

	// due_date defaults to issue_date plus the tenant payment terms
	DueDate *time.Time `json:"due_date,omitempty"`

	Notes string `json:"notes,omitempty"`

	// line_items must contain at least one entry
	LineItems []InvoiceLineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

// InvoiceLineItemRequest is one priced entry. A catalog line may omit
// description and unit_price, which then come from the product.
type InvoiceLineItemRequest struct {
	ProductID   *string `json:"product_id,omitempty"`
	Description string  `json:"description,omitempty"`
	Quantity    int64   `json:"quantity" validate:"min=1,max=1000000"`
	UnitPrice   *int64  `json:"unit_price,omitempty" validate:"omitempty,min=0,max=1000000000000"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.IssueDate != nil && r.DueDate != nil && r.DueDate.Before(types.StartOfDay(*r.IssueDate)) {
		return ierr.NewError("due date before issue date").
			WithHint("Due date cannot be before the issue date").
			WithReportableDetails(map[string]any{
				"issue_date": r.IssueDate,
				"due_date":   r.DueDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return validateLineItems(r.LineItems)
}

func validateLineItems(items []InvoiceLineItemRequest) error {
	for idx, item := range items {
		if item.ProductID == nil && item.UnitPrice == nil {
			return ierr.NewError("unit_price is required for free text line items").
				WithHint("Unit price is required for items without a product").
				WithReportableDetails(map[string]any{
					"field": "unit_price",
					"index": idx,
				}).
				Mark(ierr.ErrValidation)
		}
		if item.ProductID == nil && item.Description == "" {
			return ierr.NewError("description is required for free text line items").
				WithHint("Description is required for items without a product").
				WithReportableDetails(map[string]any{
					"field": "description",
					"index": idx,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// ToInvoice builds a draft invoice. products holds every catalog product
// referenced by the line items, keyed by id.
func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context, s *settings.Settings, products map[string]*product.Product, now time.Time) (*invoice.Invoice, error) {
	issue := lo.FromPtrOr(r.IssueDate, now).UTC()
	due := types.AddDays(issue, s.PaymentTermsDays)
	if r.DueDate != nil {
		due = r.DueDate.UTC()
	}

	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		ClientID:      r.ClientID,
		InvoiceStatus: types.InvoiceStatusDraft,
		IssueDate:     issue,
		DueDate:       due,
		Notes:         r.Notes,
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	inv.LineItems = BuildLineItems(ctx, inv.ID, r.LineItems, products)
	if err := inv.Recalculate(s.TaxRate); err != nil {
		return nil, err
	}
	return inv, nil
}

// BuildLineItems converts requested lines, filling product defaults
func BuildLineItems(ctx context.Context, invoiceID string, items []InvoiceLineItemRequest, products map[string]*product.Product) []*invoice.LineItem {
	return lo.Map(items, func(item InvoiceLineItemRequest, _ int) *invoice.LineItem {
		li := &invoice.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			InvoiceID:   invoiceID,
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   lo.FromPtr(item.UnitPrice),
			BaseModel:   types.GetDefaultBaseModel(ctx),
		}
		if item.ProductID != nil {
			if p, ok := products[*item.ProductID]; ok {
				if li.Description == "" {
					li.Description = p.Name
				}
				if item.UnitPrice == nil {
					li.UnitPrice = p.SalePrice
				}
			}
		}
		return li
	})
}

// ReferencedProductIDs returns the distinct catalog products named by the items
func ReferencedProductIDs(items []InvoiceLineItemRequest) []string {
	return lo.Uniq(lo.FilterMap(items, func(item InvoiceLineItemRequest, _ int) (string, bool) {
		return lo.FromPtr(item.ProductID), item.ProductID != nil && *item.ProductID != ""
	}))
}

// UpdateInvoiceRequest edits a draft. Omitted fields are left as they are;
// line_items, when present, replace all existing lines.
type UpdateInvoiceRequest struct {
	ClientID  *string                  `json:"client_id,omitempty"`
	DueDate   *time.Time               `json:"due_date,omitempty"`
	Notes     *string                  `json:"notes,omitempty"`
	LineItems []InvoiceLineItemRequest `json:"line_items,omitempty" validate:"omitempty,dive"`
}

func (r *UpdateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.ClientID != nil && *r.ClientID == "" {
		return ierr.NewError("client_id cannot be empty").
			WithHint("Client is required").
			Mark(ierr.ErrValidation)
	}
	return validateLineItems(r.LineItems)
}

// UpdateInvoiceStatusRequest moves an invoice along its lifecycle
type UpdateInvoiceStatusRequest struct {
	Status types.InvoiceStatus `json:"status" validate:"required"`
}

func (r *UpdateInvoiceStatusRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Status.Validate()
}

// InvoiceResponse is an invoice with its payment position at read time
type InvoiceResponse struct {
	*invoice.Invoice

	// display_status is OVERDUE for sent invoices past due
	DisplayStatus types.InvoiceStatus `json:"display_status"`
	AmountPaid    int64               `json:"amount_paid"`
	Balance       int64               `json:"balance"`
	IsOverdue     bool                `json:"is_overdue"`

	// days_until_due is only set for sent invoices, negative when past due
	DaysUntilDue *int `json:"days_until_due,omitempty"`
}

func NewInvoiceResponse(inv *invoice.Invoice, paid int64, now time.Time) *InvoiceResponse {
	resp := &InvoiceResponse{
		Invoice:       inv,
		DisplayStatus: types.DisplayStatus(inv.InvoiceStatus, inv.DueDate, now),
		AmountPaid:    paid,
		Balance:       inv.Balance(paid),
		IsOverdue:     inv.IsOverdue(now),
	}
	if inv.InvoiceStatus == types.InvoiceStatusSent {
		resp.DaysUntilDue = lo.ToPtr(types.DaysUntilDue(inv.DueDate, now))
	}
	return resp
}

type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]
