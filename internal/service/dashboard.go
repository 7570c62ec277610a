package service

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/cache"
	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

const dashboardCacheTTL = time.Minute

type DashboardService interface {
	GetFinanceSummary(ctx context.Context) (*dto.FinanceSummaryResponse, error)
}

type dashboardService struct {
	ServiceParams
}

func NewDashboardService(params ServiceParams) DashboardService {
	return &dashboardService{ServiceParams: params}
}

func dashboardCacheKey(tenantID string) string {
	return cache.GenerateKey(cache.PrefixDashboard, tenantID)
}

func (s *dashboardService) GetFinanceSummary(ctx context.Context) (*dto.FinanceSummaryResponse, error) {
	key := dashboardCacheKey(types.GetTenantID(ctx))
	if v, ok := s.Cache.Get(ctx, key); ok {
		if summary, ok := v.(*dto.FinanceSummaryResponse); ok {
			return summary, nil
		}
	}

	summary, err := s.buildFinanceSummary(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, key, summary, dashboardCacheTTL)
	return summary, nil
}

func (s *dashboardService) buildFinanceSummary(ctx context.Context, now time.Time) (*dto.FinanceSummaryResponse, error) {
	monthStart := types.StartOfMonth(now)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	var (
		current, previous dto.MonthSummary
		receivables       dto.ReceivablesSummary
		inventory         dto.InventorySummary
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		invoices, err := s.issuedBetween(ctx, monthStart, nil)
		if err != nil {
			return err
		}
		current = summarizeMonth(invoices)
		return nil
	})

	p.Go(func(ctx context.Context) error {
		invoices, err := s.issuedBetween(ctx, lastMonthStart, lo.ToPtr(monthStart.Add(-time.Nanosecond)))
		if err != nil {
			return err
		}
		previous = summarizeMonth(invoices)
		return nil
	})

	p.Go(func(ctx context.Context) error {
		r, err := s.receivables(ctx, now)
		if err != nil {
			return err
		}
		receivables = r
		return nil
	})

	p.Go(func(ctx context.Context) error {
		products, err := s.ProductRepo.List(ctx, types.NewNoLimitProductFilter())
		if err != nil {
			return err
		}
		inventory = summarizeInventory(products)
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &dto.FinanceSummaryResponse{
		CurrentMonth: current,
		LastMonth:    previous,
		GrowthPct:    types.GrowthPercent(current.Total, previous.Total),
		Receivables:  receivables,
		Inventory:    inventory,
		GeneratedAt:  now,
	}, nil
}

// issuedBetween lists non-cancelled invoices issued in [start, end]
func (s *dashboardService) issuedBetween(ctx context.Context, start time.Time, end *time.Time) ([]*invoice.Invoice, error) {
	filter := types.NewNoLimitInvoiceFilter()
	filter.IssueDateStart = lo.ToPtr(start)
	filter.IssueDateEnd = end
	filter.InvoiceStatus = []types.InvoiceStatus{
		types.InvoiceStatusDraft,
		types.InvoiceStatusSent,
		types.InvoiceStatusPaid,
	}
	return s.InvoiceRepo.List(ctx, filter)
}

func summarizeMonth(invoices []*invoice.Invoice) dto.MonthSummary {
	var m dto.MonthSummary
	for _, inv := range invoices {
		m.Total += inv.Total
		m.InvoiceCount++
		switch inv.InvoiceStatus {
		case types.InvoiceStatusPaid:
			m.Paid += inv.Total
		case types.InvoiceStatusSent:
			m.Pending += inv.Total
		}
	}
	return m
}

func (s *dashboardService) receivables(ctx context.Context, now time.Time) (dto.ReceivablesSummary, error) {
	var r dto.ReceivablesSummary

	filter := types.NewNoLimitInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusSent}
	sent, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return r, err
	}

	paid, err := s.PaymentRepo.SumByInvoices(ctx, lo.Map(sent, func(inv *invoice.Invoice, _ int) string { return inv.ID }))
	if err != nil {
		return r, err
	}

	dueSoonEnd := types.AddDays(now, s.Config.Ledger.DueSoonDays)
	for _, inv := range sent {
		r.PendingCount++
		r.OutstandingBalance += inv.Balance(paid[inv.ID])
		switch {
		case inv.IsOverdue(now):
			r.OverdueCount++
		case !inv.DueDate.After(dueSoonEnd):
			r.DueSoonCount++
		}
	}
	return r, nil
}

func summarizeInventory(products []*product.Product) dto.InventorySummary {
	var inv dto.InventorySummary
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		inv.ProductCount++
		inv.TotalUnits += p.Stock
		inv.CostValue += p.CostPrice * p.Stock
		inv.SaleValue += p.SalePrice * p.Stock
		if p.IsLowStock() {
			inv.LowStockCount++
		}
	}
	return inv
}
