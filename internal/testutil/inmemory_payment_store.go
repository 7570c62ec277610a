package testutil

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/domain/payment"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore(copyPayment),
	}
}

func copyPayment(p *payment.Payment) *payment.Payment {
	if p == nil {
		return nil
	}
	c := *p
	if p.IdempotencyKey != nil {
		c.IdempotencyKey = lo.ToPtr(*p.IdempotencyKey)
	}
	return &c
}

func paymentFilterFn(filter *types.PaymentFilter) FilterFunc[*payment.Payment] {
	return func(ctx context.Context, p *payment.Payment) bool {
		if !tenantMatches(ctx, p.BaseModel) {
			return false
		}
		if filter == nil {
			return true
		}
		if len(filter.InvoiceIDs) > 0 && !lo.Contains(filter.InvoiceIDs, p.InvoiceID) {
			return false
		}
		if filter.IdempotencyKey != "" && lo.FromPtr(p.IdempotencyKey) != filter.IdempotencyKey {
			return false
		}
		return true
	}
}

func paymentSortFn(i, j *payment.Payment) bool {
	if !i.RecordedAt.Equal(j.RecordedAt) {
		return i.RecordedAt.Before(j.RecordedAt)
	}
	return i.ID < j.ID
}

// Create enforces the tenant unique index on idempotency_key
func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p.IdempotencyKey != nil {
		if _, err := s.GetByIdempotencyKey(ctx, *p.IdempotencyKey); err == nil {
			return ierr.NewError("payment idempotency key already used").
				WithHint("A payment with this idempotency key already exists").
				WithReportableDetails(map[string]any{"idempotency_key": *p.IdempotencyKey}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !tenantMatches(ctx, p.BaseModel) {
		return nil, ierr.NewErrorf("payment %s not found", id).
			WithHintf("payment %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPaymentStore) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	return s.InMemoryStore.List(ctx, qf, paymentFilterFn(filter), paymentSortFn)
}

func (s *InMemoryPaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	filter := types.NewNoLimitPaymentFilter()
	filter.IdempotencyKey = key

	payments, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, ierr.NewError("payment not found").
			WithHint("No payment with this idempotency key").
			Mark(ierr.ErrNotFound)
	}
	return payments[0], nil
}

func (s *InMemoryPaymentStore) SumByInvoices(ctx context.Context, invoiceIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}

	filter := types.NewNoLimitPaymentFilter()
	filter.InvoiceIDs = invoiceIDs
	payments, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		out[p.InvoiceID] += p.Amount
	}
	return out, nil
}
