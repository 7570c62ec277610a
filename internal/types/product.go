package types

// StockStatus classifies a product at or under its minimum stock
type StockStatus string

const (
	StockStatusOK         StockStatus = "OK"
	StockStatusLow        StockStatus = "LOW"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// ClassifyStock returns the stock status for the given levels
func ClassifyStock(stock, minStock int64) StockStatus {
	switch {
	case stock == 0:
		return StockStatusOutOfStock
	case stock <= minStock:
		return StockStatusLow
	default:
		return StockStatusOK
	}
}

// StockMovementReason labels a stock movement
type StockMovementReason string

const (
	StockReasonInvoiceSent      StockMovementReason = "invoice_sent"
	StockReasonInvoiceCancelled StockMovementReason = "invoice_cancelled"
	StockReasonManual           StockMovementReason = "manual_adjustment"
)

// ProductFilter filters catalog listings
type ProductFilter struct {
	*QueryFilter
	ProductIDs   []string `json:"product_ids,omitempty" form:"product_ids"`
	ActiveOnly   bool     `json:"active_only,omitempty" form:"active_only"`
	LowStockOnly bool     `json:"low_stock_only,omitempty" form:"low_stock_only"`
	Search       string   `json:"search,omitempty" form:"search"`
}

func NewProductFilter() *ProductFilter {
	return &ProductFilter{QueryFilter: NewDefaultQueryFilter()}
}

func NewNoLimitProductFilter() *ProductFilter {
	return &ProductFilter{QueryFilter: NewNoLimitQueryFilter()}
}

// ClientFilter filters client listings
type ClientFilter struct {
	*QueryFilter
	ClientIDs  []string `json:"client_ids,omitempty" form:"client_ids"`
	ActiveOnly bool     `json:"active_only,omitempty" form:"active_only"`
	Search     string   `json:"search,omitempty" form:"search"`
}

func NewClientFilter() *ClientFilter {
	return &ClientFilter{QueryFilter: NewDefaultQueryFilter()}
}
