package dto

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/domain/product"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/RiveraMg/MiaBot/internal/validator"
	"github.com/samber/lo"
)

type CreateProductRequest struct {
	SKU       string `json:"sku,omitempty" validate:"max=100"`
	Name      string `json:"name" validate:"required,max=255"`
	CostPrice int64  `json:"cost_price" validate:"min=0,max=1000000000000"`
	SalePrice int64  `json:"sale_price" validate:"min=0,max=1000000000000"`
	Stock     int64  `json:"stock" validate:"min=0"`
	MinStock  int64  `json:"min_stock" validate:"min=0"`
}

func (r *CreateProductRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateProductRequest) ToProduct(ctx context.Context) *product.Product {
	return &product.Product{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRODUCT),
		SKU:       r.SKU,
		Name:      r.Name,
		CostPrice: r.CostPrice,
		SalePrice: r.SalePrice,
		Stock:     r.Stock,
		MinStock:  r.MinStock,
		IsActive:  true,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

// UpdateProductRequest edits catalog fields; stock changes go through adjustments
type UpdateProductRequest struct {
	SKU       *string `json:"sku,omitempty" validate:"omitempty,max=100"`
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	CostPrice *int64  `json:"cost_price,omitempty" validate:"omitempty,min=0,max=1000000000000"`
	SalePrice *int64  `json:"sale_price,omitempty" validate:"omitempty,min=0,max=1000000000000"`
	MinStock  *int64  `json:"min_stock,omitempty" validate:"omitempty,min=0"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (r *UpdateProductRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *UpdateProductRequest) Apply(p *product.Product) {
	p.SKU = lo.FromPtrOr(r.SKU, p.SKU)
	p.Name = lo.FromPtrOr(r.Name, p.Name)
	p.CostPrice = lo.FromPtrOr(r.CostPrice, p.CostPrice)
	p.SalePrice = lo.FromPtrOr(r.SalePrice, p.SalePrice)
	p.MinStock = lo.FromPtrOr(r.MinStock, p.MinStock)
	p.IsActive = lo.FromPtrOr(r.IsActive, p.IsActive)
}

// AdjustStockRequest is a manual out-of-band stock correction
type AdjustStockRequest struct {
	Adjustment int64  `json:"adjustment"`
	Reason     string `json:"reason" validate:"required,max=255"`
}

func (r *AdjustStockRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Adjustment == 0 {
		return ierr.NewError("adjustment cannot be zero").
			WithHint("Adjustment must be a non-zero quantity").
			WithReportableDetails(map[string]any{"field": "adjustment"}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type ProductResponse struct {
	*product.Product
	StockStatus types.StockStatus `json:"stock_status"`
}

func NewProductResponse(p *product.Product) *ProductResponse {
	return &ProductResponse{
		Product:     p,
		StockStatus: types.ClassifyStock(p.Stock, p.MinStock),
	}
}

type ListProductsResponse = types.ListResponse[*ProductResponse]

type AdjustStockResponse struct {
	Product       *ProductResponse `json:"product"`
	PreviousStock int64            `json:"previous_stock"`
	NewStock      int64            `json:"new_stock"`
}

// LowStockProductResponse is a product at or under its minimum
type LowStockProductResponse struct {
	*ProductResponse
	Deficit int64 `json:"deficit"`
}

type ListLowStockResponse struct {
	Items []*LowStockProductResponse `json:"items"`
}

type ListStockMovementsResponse = types.ListResponse[*product.StockMovement]
