package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type MonthSummary struct {
	Total        int64 `json:"total"`
	InvoiceCount int   `json:"invoice_count"`
	Paid         int64 `json:"paid"`
	Pending      int64 `json:"pending"`
}

type ReceivablesSummary struct {
	PendingCount       int   `json:"pending_count"`
	OverdueCount       int   `json:"overdue_count"`
	DueSoonCount       int   `json:"due_soon_count"`
	OutstandingBalance int64 `json:"outstanding_balance"`
}

type InventorySummary struct {
	CostValue     int64 `json:"cost_value"`
	SaleValue     int64 `json:"sale_value"`
	ProductCount  int   `json:"product_count"`
	TotalUnits    int64 `json:"total_units"`
	LowStockCount int   `json:"low_stock_count"`
}

type FinanceSummaryResponse struct {
	CurrentMonth MonthSummary       `json:"current_month"`
	LastMonth    MonthSummary       `json:"last_month"`
	GrowthPct    decimal.Decimal    `json:"growth_pct"`
	Receivables  ReceivablesSummary `json:"receivables"`
	Inventory    InventorySummary   `json:"inventory"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
