package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type DashboardServiceSuite struct {
	ledgerTestSuite
}

func TestDashboardService(t *testing.T) {
	suite.Run(t, new(DashboardServiceSuite))
}

func (s *DashboardServiceSuite) sendDated(clientID string, subtotal int64, issue, due time.Time) *dto.InvoiceResponse {
	ctx := s.GetContext()
	inv, err := s.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		ClientID:  clientID,
		IssueDate: lo.ToPtr(issue),
		DueDate:   lo.ToPtr(due),
		LineItems: []dto.InvoiceLineItemRequest{freeLine("Services", 1, subtotal)},
	})
	s.Require().NoError(err)
	sent, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().NoError(err)
	return sent
}

func (s *DashboardServiceSuite) seedLedger() {
	ctx := s.GetContext()
	now := time.Now().UTC()
	lastMonth := types.StartOfMonth(now).AddDate(0, -1, 0)
	c := s.createClient(ctx, "Acme")

	// last month: one pending far from due, one overdue
	s.sendDated(c.ID, 100_000, lastMonth.AddDate(0, 0, 1), now.AddDate(0, 0, 60))
	s.sendDated(c.ID, 10_000, lastMonth.AddDate(0, 0, 1), lastMonth.AddDate(0, 0, 2))

	// this month: paid, due soon with a partial payment, a draft and a cancelled one
	paid := s.sendDated(c.ID, 200_000, now, now.AddDate(0, 0, 30))
	_, err := s.payments.RecordPayment(ctx, paid.ID, dto.RecordPaymentRequest{Amount: paid.Total})
	s.Require().NoError(err)

	dueSoon := s.sendDated(c.ID, 50_000, now, now.AddDate(0, 0, 3))
	_, err = s.payments.RecordPayment(ctx, dueSoon.ID, dto.RecordPaymentRequest{Amount: 9_500})
	s.Require().NoError(err)

	s.createInvoice(ctx, c.ID, freeLine("Draft", 1, 10_000))
	cancelled := s.createInvoice(ctx, c.ID, freeLine("Void", 1, 70_000))
	_, err = s.invoices.CancelInvoice(ctx, cancelled.ID)
	s.Require().NoError(err)

	s.createProduct(ctx, "Cable", 1_000, 10, 2)
	s.createProduct(ctx, "Router", 3_000, 1, 5)
	retired := s.createProduct(ctx, "Retired", 9_000, 4, 0)
	_, err = s.products.UpdateProduct(ctx, retired.ID, dto.UpdateProductRequest{IsActive: lo.ToPtr(false)})
	s.Require().NoError(err)
}

func (s *DashboardServiceSuite) TestFinanceSummary() {
	s.seedLedger()

	summary, err := s.dashboard.GetFinanceSummary(s.GetContext())
	s.Require().NoError(err)

	s.Equal(dto.MonthSummary{Total: 309_400, InvoiceCount: 3, Paid: 238_000, Pending: 59_500}, summary.CurrentMonth)
	s.Equal(dto.MonthSummary{Total: 130_900, InvoiceCount: 2, Paid: 0, Pending: 130_900}, summary.LastMonth)
	s.True(decimal.RequireFromString("136.4").Equal(summary.GrowthPct), "growth %s", summary.GrowthPct)

	s.Equal(dto.ReceivablesSummary{
		PendingCount:       3,
		OverdueCount:       1,
		DueSoonCount:       1,
		OutstandingBalance: 50_000 + 119_000 + 11_900,
	}, summary.Receivables)

	s.Equal(dto.InventorySummary{
		CostValue:     500*10 + 1_500*1,
		SaleValue:     1_000*10 + 3_000*1,
		ProductCount:  2,
		TotalUnits:    11,
		LowStockCount: 1,
	}, summary.Inventory)
}

func (s *DashboardServiceSuite) TestEmptyTenant() {
	summary, err := s.dashboard.GetFinanceSummary(s.GetContext())
	s.Require().NoError(err)
	s.Equal(dto.MonthSummary{}, summary.CurrentMonth)
	s.True(summary.GrowthPct.IsZero())
	s.Equal(dto.ReceivablesSummary{}, summary.Receivables)
}

func (s *DashboardServiceSuite) TestLedgerEventsDropCachedSummary() {
	ctx := s.GetContext()
	s.seedLedger()

	first, err := s.dashboard.GetFinanceSummary(ctx)
	s.Require().NoError(err)

	inv := s.sentInvoice(ctx, 1_000)

	cached, err := s.dashboard.GetFinanceSummary(ctx)
	s.Require().NoError(err)
	s.Equal(first.CurrentMonth.InvoiceCount, cached.CurrentMonth.InvoiceCount)

	events := s.GetPublisher().Events(types.EventInvoiceSent)
	s.Require().NotEmpty(events)
	sentEvent, ok := lo.Find(events, func(e *types.LedgerEvent) bool { return e.ID == inv.ID })
	s.Require().True(ok)
	payload, err := json.Marshal(sentEvent)
	s.Require().NoError(err)

	handler := NewLedgerEventHandler(s.params)
	s.Require().NoError(handler.Handle(message.NewMessage(watermill.NewUUID(), payload)))
	s.Equal(1.0, promtest.ToFloat64(s.GetMetrics().EventsHandled.WithLabelValues(types.EventInvoiceSent, "ok")))

	fresh, err := s.dashboard.GetFinanceSummary(ctx)
	s.Require().NoError(err)
	s.Equal(first.CurrentMonth.InvoiceCount+1, fresh.CurrentMonth.InvoiceCount)
}

func (s *DashboardServiceSuite) TestMalformedEventIsAcknowledged() {
	handler := NewLedgerEventHandler(s.params)
	err := handler.Handle(message.NewMessage(watermill.NewUUID(), []byte("{not json")))
	s.NoError(err)
	s.Equal(1.0, promtest.ToFloat64(s.GetMetrics().EventsHandled.WithLabelValues("unknown", "malformed")))
}
