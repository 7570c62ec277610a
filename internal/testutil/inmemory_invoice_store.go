package testutil

import (
	"context"
	"sync"

	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu        sync.Mutex
	sequences map[string]int64
	conflicts int
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore(copyInvoice),
		sequences:     make(map[string]int64),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	if inv.PaidDate != nil {
		c.PaidDate = lo.ToPtr(*inv.PaidDate)
	}
	c.LineItems = lo.Map(inv.LineItems, func(li *invoice.LineItem, _ int) *invoice.LineItem {
		item := *li
		if li.ProductID != nil {
			item.ProductID = lo.ToPtr(*li.ProductID)
		}
		return &item
	})
	return &c
}

func invoiceFilterFn(filter *types.InvoiceFilter) FilterFunc[*invoice.Invoice] {
	return func(ctx context.Context, inv *invoice.Invoice) bool {
		if !tenantMatches(ctx, inv.BaseModel) {
			return false
		}
		if filter == nil {
			return true
		}
		if len(filter.InvoiceIDs) > 0 && !lo.Contains(filter.InvoiceIDs, inv.ID) {
			return false
		}
		if len(filter.InvoiceStatus) > 0 && !lo.Contains(filter.InvoiceStatus, inv.InvoiceStatus) {
			return false
		}
		if filter.ClientID != "" && inv.ClientID != filter.ClientID {
			return false
		}
		if filter.IssueDateStart != nil && inv.IssueDate.Before(*filter.IssueDateStart) {
			return false
		}
		if filter.IssueDateEnd != nil && inv.IssueDate.After(*filter.IssueDateEnd) {
			return false
		}
		if filter.DueDateStart != nil && inv.DueDate.Before(*filter.DueDateStart) {
			return false
		}
		if filter.DueDateEnd != nil && inv.DueDate.After(*filter.DueDateEnd) {
			return false
		}
		if filter.DueBefore != nil && !inv.DueDate.Before(*filter.DueBefore) {
			return false
		}
		return true
	}
}

func invoiceSortFn(i, j *invoice.Invoice) bool {
	if !i.IssueDate.Equal(j.IssueDate) {
		return i.IssueDate.After(j.IssueDate)
	}
	return i.Number > j.Number
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	for _, li := range inv.LineItems {
		li.InvoiceID = inv.ID
	}
	return s.InMemoryStore.Create(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !tenantMatches(ctx, inv.BaseModel) {
		return nil, ierr.NewErrorf("invoice %s not found", id).
			WithHintf("invoice %s not found", id).
			WithReportableDetails(map[string]any{"entity": "invoice", "id": id}).
			Mark(ierr.ErrNotFound)
	}
	return inv, nil
}

// GetForUpdate relies on the mock client serializing transactions for the lock
func (s *InMemoryInvoiceStore) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	if !InTx(ctx) {
		return nil, ierr.NewError("row lock requested outside a transaction").
			Mark(ierr.ErrSystem)
	}
	return s.Get(ctx, id)
}

// Update fails with a concurrency conflict on a stale version, like the
// version predicate of the SQL update
func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	injected := s.conflicts > 0
	if injected {
		s.conflicts--
	}
	s.mu.Unlock()

	current, err := s.Get(ctx, inv.ID)
	if err != nil {
		return err
	}
	if injected || current.Version != inv.Version {
		return ierr.NewError("invoice was modified concurrently").
			WithHint("The invoice changed while you were editing it, please retry").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"version":    inv.Version,
			}).
			Mark(ierr.ErrConcurrencyConflict)
	}

	inv.Version++
	inv.UpdatedBy = types.GetUserID(ctx)
	// line items only change through ReplaceLineItems
	next := copyInvoice(inv)
	next.LineItems = current.LineItems
	return s.InMemoryStore.Update(ctx, inv.ID, next)
}

func (s *InMemoryInvoiceStore) ReplaceLineItems(ctx context.Context, inv *invoice.Invoice) error {
	current, err := s.Get(ctx, inv.ID)
	if err != nil {
		return err
	}
	for _, li := range inv.LineItems {
		li.InvoiceID = inv.ID
	}
	current.LineItems = copyInvoice(inv).LineItems
	return s.InMemoryStore.Update(ctx, inv.ID, current)
}

// List drops line items the way the SQL listing does
func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	invoices, err := s.InMemoryStore.List(ctx, qf, invoiceFilterFn(filter), invoiceSortFn)
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		inv.LineItems = nil
	}
	return invoices, nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, invoiceFilterFn(filter))
}

func (s *InMemoryInvoiceStore) GetNextInvoiceNumber(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenantID := types.GetTenantID(ctx)
	s.sequences[tenantID]++
	return s.sequences[tenantID], nil
}

// InjectConflicts makes the next n updates fail as if another writer won the race
func (s *InMemoryInvoiceStore) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

// Snapshot includes the tenant counters, which roll back with the transaction
func (s *InMemoryInvoiceStore) Snapshot() func() {
	restoreItems := s.InMemoryStore.Snapshot()

	s.mu.Lock()
	saved := lo.Assign(s.sequences)
	s.mu.Unlock()

	return func() {
		restoreItems()
		s.mu.Lock()
		s.sequences = saved
		s.mu.Unlock()
	}
}

func (s *InMemoryInvoiceStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences = make(map[string]int64)
	s.conflicts = 0
}
