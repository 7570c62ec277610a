package service

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/testutil"
	"github.com/RiveraMg/MiaBot/internal/types"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	ledgerTestSuite
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceComputesTotals() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")

	inv := s.createInvoice(ctx, c.ID,
		freeLine("Laptop", 1, 3_200_000),
		freeLine("Mouse", 1, 75_000),
	)

	s.Equal(int64(3_275_000), inv.Subtotal)
	s.Equal(int64(622_250), inv.Tax)
	s.Equal(int64(3_897_250), inv.Total)
	s.True(inv.TaxRate.Equal(decimal.RequireFromString("0.19")))
	s.Equal(types.InvoiceStatusDraft, inv.InvoiceStatus)
	s.Equal("FAC-00001", inv.Number)
	s.Equal(inv.Total, inv.Balance)
	s.Equal(1, inv.Version)
	s.Len(inv.LineItems, 2)
	s.True(types.AddDays(inv.IssueDate, 30).Equal(inv.DueDate))

	events := s.GetPublisher().Events(types.EventInvoiceCreated)
	s.Require().Len(events, 1)
	s.Equal(types.DefaultTenantID, events[0].TenantID)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceFillsProductDefaults() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	p := s.createProduct(ctx, "Keyboard", 120_000, 10, 2)

	inv := s.createInvoice(ctx, c.ID, productLine(p, 3))

	s.Require().Len(inv.LineItems, 1)
	li := inv.LineItems[0]
	s.Equal("Keyboard", li.Description)
	s.Equal(int64(120_000), li.UnitPrice)
	s.Equal(int64(360_000), li.LineTotal)
	s.Equal(int64(360_000), inv.Subtotal)
	s.Equal(int64(68_400), inv.Tax)

	// drafts do not touch stock
	s.Equal(int64(10), s.stockOf(ctx, p.ID))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceTaxRoundsHalfUp() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")

	// 50 * 0.19 = 9.5
	inv := s.createInvoice(ctx, c.ID, freeLine("Sticker", 1, 50))
	s.Equal(int64(10), inv.Tax)
	s.Equal(int64(60), inv.Total)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceValidation() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	now := time.Now().UTC()

	tests := []struct {
		name    string
		req     dto.CreateInvoiceRequest
		checkFn func(error) bool
	}{
		{
			name:    "no line items",
			req:     dto.CreateInvoiceRequest{ClientID: c.ID},
			checkFn: ierr.IsValidation,
		},
		{
			name:    "missing client",
			req:     dto.CreateInvoiceRequest{LineItems: []dto.InvoiceLineItemRequest{freeLine("x", 1, 100)}},
			checkFn: ierr.IsValidation,
		},
		{
			name:    "zero quantity",
			req:     dto.CreateInvoiceRequest{ClientID: c.ID, LineItems: []dto.InvoiceLineItemRequest{freeLine("x", 0, 100)}},
			checkFn: ierr.IsValidation,
		},
		{
			name: "free text without price",
			req: dto.CreateInvoiceRequest{ClientID: c.ID, LineItems: []dto.InvoiceLineItemRequest{
				{Description: "x", Quantity: 1},
			}},
			checkFn: ierr.IsValidation,
		},
		{
			name: "due date before issue date",
			req: dto.CreateInvoiceRequest{
				ClientID:  c.ID,
				IssueDate: lo.ToPtr(now),
				DueDate:   lo.ToPtr(now.AddDate(0, 0, -2)),
				LineItems: []dto.InvoiceLineItemRequest{freeLine("x", 1, 100)},
			},
			checkFn: ierr.IsValidation,
		},
		{
			name:    "unknown client",
			req:     dto.CreateInvoiceRequest{ClientID: "cli_missing", LineItems: []dto.InvoiceLineItemRequest{freeLine("x", 1, 100)}},
			checkFn: ierr.IsNotFound,
		},
		{
			name:    "quantity above limit",
			req:     dto.CreateInvoiceRequest{ClientID: c.ID, LineItems: []dto.InvoiceLineItemRequest{freeLine("x", types.MAX_LINE_QUANTITY+1, 100)}},
			checkFn: ierr.IsValidation,
		},
		{
			name:    "unit price above limit",
			req:     dto.CreateInvoiceRequest{ClientID: c.ID, LineItems: []dto.InvoiceLineItemRequest{freeLine("x", 4, math.MaxInt64/2)}},
			checkFn: ierr.IsValidation,
		},
		{
			name: "unknown product",
			req: dto.CreateInvoiceRequest{ClientID: c.ID, LineItems: []dto.InvoiceLineItemRequest{
				{ProductID: lo.ToPtr("prod_missing"), Quantity: 1},
			}},
			checkFn: ierr.IsNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.invoices.CreateInvoice(ctx, tt.req)
			s.Require().Error(err)
			s.True(tt.checkFn(err), "unexpected error: %v", err)
		})
	}

	// a rejected creation never consumes a number
	inv := s.createInvoice(ctx, c.ID, freeLine("x", 1, 100))
	s.Equal("FAC-00001", inv.Number)
}

func (s *InvoiceServiceSuite) TestTotalsThatOverflowAreRejected() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")

	// each line is within bounds but the subtotal does not fit an amount
	lines := lo.Times(10, func(_ int) dto.InvoiceLineItemRequest {
		return freeLine("x", types.MAX_LINE_QUANTITY, types.MAX_UNIT_PRICE)
	})
	_, err := s.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{ClientID: c.ID, LineItems: lines})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err), "unexpected error: %v", err)

	list, err := s.invoices.ListInvoices(ctx, types.NewInvoiceFilter())
	s.Require().NoError(err)
	s.Empty(list.Items)

	draft := s.createInvoice(ctx, c.ID, freeLine("x", 1, 100))
	_, err = s.invoices.UpdateDraft(ctx, draft.ID, dto.UpdateInvoiceRequest{LineItems: lines})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err), "unexpected error: %v", err)

	got, err := s.invoices.GetInvoice(ctx, draft.ID)
	s.Require().NoError(err)
	s.Equal(int64(100), got.Subtotal)
	s.Len(got.LineItems, 1)
}

func (s *InvoiceServiceSuite) TestInvoiceNumbersAreSequentialPerTenant() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")

	first := s.createInvoice(ctx, c.ID, freeLine("x", 1, 100))
	second := s.createInvoice(ctx, c.ID, freeLine("y", 1, 100))
	s.Equal("FAC-00001", first.Number)
	s.Equal("FAC-00002", second.Number)

	other := testutil.SetupTenantContext("tenant_other")
	oc := s.createClient(other, "Other")
	s.Equal("FAC-00001", s.createInvoice(other, oc.ID, freeLine("z", 1, 100)).Number)
}

func (s *InvoiceServiceSuite) TestConcurrentCreatesNeverShareANumber() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{
				ClientID:  c.ID,
				LineItems: []dto.InvoiceLineItemRequest{freeLine("x", 1, 100)},
			})
			if err != nil {
				return
			}
			mu.Lock()
			numbers = append(numbers, resp.Number)
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Len(numbers, n)
	s.Len(lo.Uniq(numbers), n)
	s.Contains(numbers, "FAC-00001")
	s.Contains(numbers, "FAC-00020")
}

func (s *InvoiceServiceSuite) TestCreateInvoiceUsesTenantSettings() {
	ctx := s.GetContext()
	_, err := s.settings.UpdateSettings(ctx, dto.UpdateSettingsRequest{
		TaxRate:          lo.ToPtr(decimal.RequireFromString("0.05")),
		InvoicePrefix:    lo.ToPtr("INV"),
		PaymentTermsDays: lo.ToPtr(15),
	})
	s.Require().NoError(err)

	c := s.createClient(ctx, "Acme")
	inv := s.createInvoice(ctx, c.ID, freeLine("x", 1, 10_000))

	s.Equal("INV-00001", inv.Number)
	s.Equal(int64(500), inv.Tax)
	s.True(types.AddDays(inv.IssueDate, 15).Equal(inv.DueDate))
}

func (s *InvoiceServiceSuite) TestSendDecrementsStock() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	p := s.createProduct(ctx, "Keyboard", 100_000, 5, 1)
	inv := s.createInvoice(ctx, c.ID, productLine(p, 2), freeLine("Setup", 1, 30_000))

	resp, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusSent, resp.InvoiceStatus)
	s.True(resp.StockApplied)
	s.Equal(2, resp.Version)
	s.Require().NotNil(resp.DaysUntilDue)
	s.Equal(30, *resp.DaysUntilDue)

	s.Equal(int64(3), s.stockOf(ctx, p.ID))

	movements, err := s.stock.ListMovements(ctx, p.ID, nil)
	s.Require().NoError(err)
	s.Require().Len(movements.Items, 1)
	m := movements.Items[0]
	s.Equal(int64(-2), m.Delta)
	s.Equal(int64(5), m.PreviousStock)
	s.Equal(int64(3), m.NewStock)
	s.Equal(types.StockReasonInvoiceSent, m.Reason)
	s.Equal(inv.ID, lo.FromPtr(m.InvoiceID))

	s.Len(s.GetPublisher().Events(types.EventInvoiceSent), 1)
}

func (s *InvoiceServiceSuite) TestSendWithInsufficientStockChangesNothing() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	plenty := s.createProduct(ctx, "Cable", 1_000, 50, 0)
	scarce := s.createProduct(ctx, "Monitor", 900_000, 1, 0)
	inv := s.createInvoice(ctx, c.ID, productLine(plenty, 5), productLine(scarce, 2))

	_, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrInsufficientStock))
	s.Equal(ierr.ErrCodeInsufficientStock, ierr.Code(err))

	s.Equal(int64(50), s.stockOf(ctx, plenty.ID))
	s.Equal(int64(1), s.stockOf(ctx, scarce.ID))

	got, err := s.invoices.GetInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusDraft, got.InvoiceStatus)
	s.False(got.StockApplied)

	movements, err := s.stock.ListMovements(ctx, plenty.ID, nil)
	s.Require().NoError(err)
	s.Empty(movements.Items)
	s.Empty(s.GetPublisher().Events(types.EventInvoiceSent))
}

func (s *InvoiceServiceSuite) TestSendTwiceIsRejected() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	p := s.createProduct(ctx, "Keyboard", 100_000, 5, 1)
	inv := s.createInvoice(ctx, c.ID, productLine(p, 2))

	_, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().NoError(err)

	_, err = s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrInvalidTransition))
	s.Equal(int64(3), s.stockOf(ctx, p.ID))
}

func (s *InvoiceServiceSuite) TestSendRetriesAfterConflict() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	p := s.createProduct(ctx, "Keyboard", 100_000, 5, 1)
	inv := s.createInvoice(ctx, c.ID, productLine(p, 2))

	s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore).InjectConflicts(1)

	resp, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusSent, resp.InvoiceStatus)

	// the failed attempt rolled back its stock movement
	s.Equal(int64(3), s.stockOf(ctx, p.ID))
	movements, err := s.stock.ListMovements(ctx, p.ID, nil)
	s.Require().NoError(err)
	s.Len(movements.Items, 1)

	s.Equal(float64(1), promtest.ToFloat64(s.GetMetrics().ConflictRetries.WithLabelValues("transition_invoice")))
}

func (s *InvoiceServiceSuite) TestSendGivesUpAfterMaxRetries() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	p := s.createProduct(ctx, "Keyboard", 100_000, 5, 1)
	inv := s.createInvoice(ctx, c.ID, productLine(p, 2))

	s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore).InjectConflicts(100)

	_, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().Error(err)
	s.True(ierr.IsConcurrencyConflict(err))
	s.Equal(int64(5), s.stockOf(ctx, p.ID))
}

func (s *InvoiceServiceSuite) TestCancelSentInvoiceRestoresStock() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	p := s.createProduct(ctx, "Keyboard", 100_000, 5, 1)
	inv := s.createInvoice(ctx, c.ID, productLine(p, 2))

	_, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().NoError(err)
	s.Equal(int64(3), s.stockOf(ctx, p.ID))

	resp, err := s.invoices.CancelInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusCancelled, resp.InvoiceStatus)
	s.False(resp.StockApplied)
	s.Equal(int64(5), s.stockOf(ctx, p.ID))

	movements, err := s.stock.ListMovements(ctx, p.ID, nil)
	s.Require().NoError(err)
	s.Require().Len(movements.Items, 2)
	reasons := lo.Map(movements.Items, func(m *product.StockMovement, _ int) types.StockMovementReason { return m.Reason })
	s.ElementsMatch([]types.StockMovementReason{types.StockReasonInvoiceSent, types.StockReasonInvoiceCancelled}, reasons)

	s.Len(s.GetPublisher().Events(types.EventInvoiceCancelled), 1)
}

func (s *InvoiceServiceSuite) TestCancelDraftLeavesStockAlone() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	p := s.createProduct(ctx, "Keyboard", 100_000, 5, 1)
	inv := s.createInvoice(ctx, c.ID, productLine(p, 2))

	resp, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusCancelled)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusCancelled, resp.InvoiceStatus)
	s.Equal(int64(5), s.stockOf(ctx, p.ID))

	movements, err := s.stock.ListMovements(ctx, p.ID, nil)
	s.Require().NoError(err)
	s.Empty(movements.Items)
}

func (s *InvoiceServiceSuite) TestCancelWithPaymentsIsRejected() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000)

	_, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 1})
	s.Require().NoError(err)

	_, err = s.invoices.CancelInvoice(ctx, inv.ID)
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrInvoiceHasPayments))

	got, err := s.invoices.GetInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusSent, got.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestIllegalTransitions() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")

	draft := s.createInvoice(ctx, c.ID, freeLine("x", 1, 100))
	cancelled := s.createInvoice(ctx, c.ID, freeLine("y", 1, 100))
	_, err := s.invoices.CancelInvoice(ctx, cancelled.ID)
	s.Require().NoError(err)

	tests := []struct {
		name   string
		id     string
		target types.InvoiceStatus
		mark   error
	}{
		{"paid is reserved for payments", draft.ID, types.InvoiceStatusPaid, ierr.ErrInvalidTransition},
		{"overdue is never stored", draft.ID, types.InvoiceStatusOverdue, ierr.ErrInvalidTransition},
		{"draft to draft", draft.ID, types.InvoiceStatusDraft, ierr.ErrInvalidTransition},
		{"cancelled is terminal", cancelled.ID, types.InvoiceStatusSent, ierr.ErrInvalidTransition},
		{"cancel twice", cancelled.ID, types.InvoiceStatusCancelled, ierr.ErrInvalidTransition},
		{"unknown status", draft.ID, types.InvoiceStatus("ARCHIVED"), ierr.ErrValidation},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.invoices.TransitionInvoice(ctx, tt.id, tt.target)
			s.Require().Error(err)
			s.True(ierr.Is(err, tt.mark), "unexpected error: %v", err)
		})
	}

	_, err = s.invoices.TransitionInvoice(ctx, "inv_missing", types.InvoiceStatusSent)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestUpdateDraftReplacesLines() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	inv := s.createInvoice(ctx, c.ID, freeLine("x", 1, 100))

	due := inv.IssueDate.AddDate(0, 0, 10)
	resp, err := s.invoices.UpdateDraft(ctx, inv.ID, dto.UpdateInvoiceRequest{
		DueDate:   lo.ToPtr(due),
		Notes:     lo.ToPtr("net 10"),
		LineItems: []dto.InvoiceLineItemRequest{freeLine("a", 2, 1_000), freeLine("b", 1, 500)},
	})
	s.Require().NoError(err)
	s.Equal(int64(2_500), resp.Subtotal)
	s.Equal(int64(475), resp.Tax)
	s.Equal(int64(2_975), resp.Total)
	s.Equal(2, resp.Version)

	got, err := s.invoices.GetInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Len(got.LineItems, 2)
	s.Equal("net 10", got.Notes)
	s.True(due.Equal(got.DueDate))
	s.Equal(inv.Number, got.Number)
	s.Len(s.GetPublisher().Events(types.EventInvoiceUpdated), 1)
}

func (s *InvoiceServiceSuite) TestUpdateSentInvoiceIsRejected() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 1_000)

	_, err := s.invoices.UpdateDraft(ctx, inv.ID, dto.UpdateInvoiceRequest{Notes: lo.ToPtr("late edit")})
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrInvalidInvoiceState))
}

func (s *InvoiceServiceSuite) TestOverdueIsDerivedAtReadTime() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	now := time.Now().UTC()

	late, err := s.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		ClientID:  c.ID,
		IssueDate: lo.ToPtr(now.AddDate(0, 0, -40)),
		DueDate:   lo.ToPtr(now.AddDate(0, 0, -10)),
		LineItems: []dto.InvoiceLineItemRequest{freeLine("old", 1, 1_000)},
	})
	s.Require().NoError(err)
	_, err = s.invoices.TransitionInvoice(ctx, late.ID, types.InvoiceStatusSent)
	s.Require().NoError(err)

	onTime := s.sentInvoice(ctx, 2_000)

	// past due drafts are not overdue
	_, err = s.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		ClientID:  c.ID,
		IssueDate: lo.ToPtr(now.AddDate(0, 0, -40)),
		DueDate:   lo.ToPtr(now.AddDate(0, 0, -10)),
		LineItems: []dto.InvoiceLineItemRequest{freeLine("draft", 1, 1_000)},
	})
	s.Require().NoError(err)

	overdue, err := s.invoices.ListOverdue(ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(overdue.Items, 1)
	s.Equal(late.ID, overdue.Items[0].ID)
	s.Equal(types.InvoiceStatusSent, overdue.Items[0].InvoiceStatus)
	s.Equal(types.InvoiceStatusOverdue, overdue.Items[0].DisplayStatus)
	s.True(overdue.Items[0].IsOverdue)
	s.Equal(-10, *overdue.Items[0].DaysUntilDue)
	s.Equal(1, overdue.Pagination.Total)

	got, err := s.invoices.GetInvoice(ctx, onTime.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusSent, got.DisplayStatus)
	s.False(got.IsOverdue)

	filter := types.NewInvoiceFilter()
	filter.OverdueOnly = true
	byFlag, err := s.invoices.ListInvoices(ctx, filter)
	s.Require().NoError(err)
	s.Len(byFlag.Items, 1)
}

func (s *InvoiceServiceSuite) TestListInvoicesFilters() {
	ctx := s.GetContext()
	acme := s.createClient(ctx, "Acme")
	globex := s.createClient(ctx, "Globex")

	s.createInvoice(ctx, acme.ID, freeLine("a", 1, 100))
	s.createInvoice(ctx, acme.ID, freeLine("b", 1, 100))
	g := s.createInvoice(ctx, globex.ID, freeLine("c", 1, 100))
	_, err := s.invoices.TransitionInvoice(ctx, g.ID, types.InvoiceStatusSent)
	s.Require().NoError(err)

	filter := types.NewInvoiceFilter()
	filter.ClientID = acme.ID
	resp, err := s.invoices.ListInvoices(ctx, filter)
	s.Require().NoError(err)
	s.Len(resp.Items, 2)
	s.Equal(2, resp.Pagination.Total)

	filter = types.NewInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusSent}
	resp, err = s.invoices.ListInvoices(ctx, filter)
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(g.ID, resp.Items[0].ID)

	filter = types.NewInvoiceFilter()
	filter.Limit = lo.ToPtr(2)
	resp, err = s.invoices.ListInvoices(ctx, filter)
	s.Require().NoError(err)
	s.Len(resp.Items, 2)
	s.Equal(3, resp.Pagination.Total)
	// newest number first on the same issue day
	s.Equal("FAC-00003", resp.Items[0].Number)

	filter = types.NewInvoiceFilter()
	filter.Limit = lo.ToPtr(5000)
	_, err = s.invoices.ListInvoices(ctx, filter)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestDueSoonAndPending() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	now := time.Now().UTC()

	send := func(dueInDays int) string {
		resp, err := s.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{
			ClientID:  c.ID,
			IssueDate: lo.ToPtr(now.AddDate(0, 0, -30)),
			DueDate:   lo.ToPtr(now.AddDate(0, 0, dueInDays)),
			LineItems: []dto.InvoiceLineItemRequest{freeLine("x", 1, 1_000)},
		})
		s.Require().NoError(err)
		_, err = s.invoices.TransitionInvoice(ctx, resp.ID, types.InvoiceStatusSent)
		s.Require().NoError(err)
		return resp.ID
	}

	later := send(20)
	soon := send(5)
	sooner := send(2)
	overdue := send(-3)

	dueSoon, err := s.invoices.ListDueSoon(ctx, 0)
	s.Require().NoError(err)
	s.Equal([]string{sooner, soon}, lo.Map(dueSoon.Items, func(i *dto.InvoiceResponse, _ int) string { return i.ID }))

	wider, err := s.invoices.ListDueSoon(ctx, 30)
	s.Require().NoError(err)
	s.Len(wider.Items, 3)

	pending, err := s.invoices.ListPending(ctx)
	s.Require().NoError(err)
	s.Equal([]string{overdue, sooner, soon, later}, lo.Map(pending.Items, func(i *dto.InvoiceResponse, _ int) string { return i.ID }))
}

func (s *InvoiceServiceSuite) TestTenantsAreIsolated() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 1_000)

	other := testutil.SetupTenantContext("tenant_other")
	_, err := s.invoices.GetInvoice(other, inv.ID)
	s.True(ierr.IsNotFound(err))

	_, err = s.invoices.TransitionInvoice(other, inv.ID, types.InvoiceStatusCancelled)
	s.True(ierr.IsNotFound(err))

	list, err := s.invoices.ListInvoices(other, nil)
	s.Require().NoError(err)
	s.Empty(list.Items)
}

func (s *InvoiceServiceSuite) TestPublishFailureDoesNotFailTheOperation() {
	ctx := s.GetContext()
	s.GetPublisher().FailWith(errors.New("broker down"))

	c := s.createClient(ctx, "Acme")
	inv := s.createInvoice(ctx, c.ID, freeLine("x", 1, 100))

	got, err := s.invoices.GetInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(inv.Number, got.Number)
}
