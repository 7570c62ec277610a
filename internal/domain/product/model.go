package product

import (
	"time"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
)

// Product is a catalog entry with on-hand stock
type Product struct {
	ID        string `db:"id" json:"id"`
	SKU       string `db:"sku" json:"sku"`
	Name      string `db:"name" json:"name"`
	CostPrice int64  `db:"cost_price" json:"cost_price"`
	SalePrice int64  `db:"sale_price" json:"sale_price"`
	Stock     int64  `db:"stock" json:"stock"`
	MinStock  int64  `db:"min_stock" json:"min_stock"`
	IsActive  bool   `db:"is_active" json:"is_active"`

	types.BaseModel
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ierr.NewError("product name is required").
			WithHint("Name is required").
			Mark(ierr.ErrValidation)
	}
	if p.CostPrice < 0 || p.SalePrice < 0 {
		return ierr.NewError("product prices cannot be negative").
			WithHint("Prices cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if p.Stock < 0 || p.MinStock < 0 {
		return ierr.NewError("product stock cannot be negative").
			WithHint("Stock cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsLowStock reports whether the product is at or under its minimum
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// StockMovement records one change to a product's stock
type StockMovement struct {
	ID            string                    `db:"id" json:"id"`
	TenantID      string                    `db:"tenant_id" json:"tenant_id"`
	ProductID     string                    `db:"product_id" json:"product_id"`
	InvoiceID     *string                   `db:"invoice_id" json:"invoice_id,omitempty"`
	Delta         int64                     `db:"delta" json:"delta"`
	PreviousStock int64                     `db:"previous_stock" json:"previous_stock"`
	NewStock      int64                     `db:"new_stock" json:"new_stock"`
	Reason        types.StockMovementReason `db:"reason" json:"reason"`
	Note          string                    `db:"note" json:"note"`
	CreatedAt     time.Time                 `db:"created_at" json:"created_at"`
	CreatedBy     string                    `db:"created_by" json:"created_by"`
}
