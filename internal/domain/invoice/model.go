package invoice

import (
	"time"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Invoice is a sale document. Amounts are minor currency units.
type Invoice struct {
	ID            string              `db:"id" json:"id"`
	Number        string              `db:"number" json:"number"`
	ClientID      string              `db:"client_id" json:"client_id"`
	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	IssueDate     time.Time           `db:"issue_date" json:"issue_date"`
	DueDate       time.Time           `db:"due_date" json:"due_date"`
	PaidDate      *time.Time          `db:"paid_date" json:"paid_date,omitempty"`
	Subtotal      int64               `db:"subtotal" json:"subtotal"`
	Tax           int64               `db:"tax" json:"tax"`
	Total         int64               `db:"total" json:"total"`
	TaxRate       decimal.Decimal     `db:"tax_rate" json:"tax_rate"`
	Notes         string              `db:"notes" json:"notes"`
	// StockApplied is set in the same transaction that decrements stock for the line items
	StockApplied bool `db:"stock_applied" json:"stock_applied"`
	Version      int  `db:"version" json:"version"`

	LineItems []*LineItem `db:"-" json:"line_items,omitempty"`

	types.BaseModel
}

// Recalculate derives line totals, subtotal, tax and total from the line items.
// Amounts that overflow fail with ErrValidation and leave the invoice untouched.
func (i *Invoice) Recalculate(rate decimal.Decimal) error {
	lineTotals := make([]int64, 0, len(i.LineItems))
	for _, li := range i.LineItems {
		lt, err := types.LineTotal(li.Quantity, li.UnitPrice)
		if err != nil {
			return err
		}
		lineTotals = append(lineTotals, lt)
	}
	subtotal, tax, total, err := types.ComputeTotals(lineTotals, rate)
	if err != nil {
		return err
	}
	for idx, li := range i.LineItems {
		li.LineTotal = lineTotals[idx]
	}
	i.TaxRate = rate
	i.Subtotal, i.Tax, i.Total = subtotal, tax, total
	return nil
}

// IsOverdue reports whether the invoice is sent and past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return types.IsOverdue(i.InvoiceStatus, i.DueDate, now)
}

// Balance returns what is still owed given the amount already paid
func (i *Invoice) Balance(paid int64) int64 {
	return i.Total - paid
}

// ProductQuantities sums line item quantities per catalog product.
// Free text lines are skipped.
func (i *Invoice) ProductQuantities() map[string]int64 {
	out := make(map[string]int64)
	for _, li := range i.LineItems {
		if li.ProductID == nil || *li.ProductID == "" {
			continue
		}
		out[*li.ProductID] += li.Quantity
	}
	return out
}

// ProductIDs returns the distinct catalog products referenced by the line items
func (i *Invoice) ProductIDs() []string {
	return lo.Keys(i.ProductQuantities())
}

func (i *Invoice) Validate() error {
	if i.ClientID == "" {
		return ierr.NewError("client_id is required").
			WithHint("Client is required").
			Mark(ierr.ErrValidation)
	}
	if len(i.LineItems) == 0 {
		return ierr.NewError("invoice has no line items").
			WithHint("At least one line item is required").
			Mark(ierr.ErrValidation)
	}
	for idx, li := range i.LineItems {
		if err := li.Validate(idx); err != nil {
			return err
		}
	}
	if i.DueDate.Before(types.StartOfDay(i.IssueDate)) {
		return ierr.NewError("due date before issue date").
			WithHint("Due date cannot be before the issue date").
			WithReportableDetails(map[string]any{
				"issue_date": i.IssueDate,
				"due_date":   i.DueDate,
			}).
			Mark(ierr.ErrValidation)
	}
	if i.Subtotal < 0 || i.Tax < 0 || i.Total < 0 {
		return ierr.NewError("invoice amounts cannot be negative").
			WithHint("Invoice totals cannot be negative").
			WithReportableDetails(map[string]any{
				"subtotal": i.Subtotal,
				"tax":      i.Tax,
				"total":    i.Total,
			}).
			Mark(ierr.ErrValidation)
	}
	if i.Total != i.Subtotal+i.Tax {
		return ierr.NewError("total does not match subtotal plus tax").
			WithHint("Invoice totals are inconsistent").
			Mark(ierr.ErrValidation)
	}
	return nil
}
