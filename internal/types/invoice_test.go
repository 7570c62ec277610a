package types

import (
	"testing"
	"time"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceTransitions(t *testing.T) {
	legal := map[InvoiceStatus][]InvoiceStatus{
		InvoiceStatusDraft: {InvoiceStatusSent, InvoiceStatusCancelled},
		InvoiceStatusSent:  {InvoiceStatusPaid, InvoiceStatusCancelled},
	}

	for _, from := range invoiceStatuses {
		for _, to := range invoiceStatuses {
			want := lo.Contains(legal[from], to)
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)

			err := ValidateInvoiceTransition(from, to)
			if want {
				assert.NoError(t, err)
				continue
			}
			require.Error(t, err)
			assert.True(t, ierr.Is(err, ierr.ErrInvalidTransition))
		}
	}

	assert.True(t, InvoiceStatusPaid.IsTerminal())
	assert.True(t, InvoiceStatusCancelled.IsTerminal())
	assert.False(t, InvoiceStatusSent.IsTerminal())
}

func TestInvoiceStatusValidate(t *testing.T) {
	for _, s := range invoiceStatuses {
		assert.NoError(t, s.Validate())
	}
	assert.True(t, ierr.IsValidation(InvoiceStatus("sent").Validate()))
	assert.True(t, ierr.IsValidation(InvoiceStatus("").Validate()))
}

func TestOverdueClassification(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		status  InvoiceStatus
		due     time.Time
		overdue bool
	}{
		{InvoiceStatusSent, past, true},
		{InvoiceStatusSent, future, false},
		{InvoiceStatusSent, now, false},
		{InvoiceStatusDraft, past, false},
		{InvoiceStatusPaid, past, false},
		{InvoiceStatusCancelled, past, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.overdue, IsOverdue(tt.status, tt.due, now))
			want := lo.Ternary(tt.overdue, InvoiceStatusOverdue, tt.status)
			assert.Equal(t, want, DisplayStatus(tt.status, tt.due, now))
		})
	}
}

func TestResolveOverdue(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	t.Run("overdue only flag", func(t *testing.T) {
		f := NewInvoiceFilter()
		f.OverdueOnly = true
		f.ResolveOverdue(now)
		assert.Equal(t, []InvoiceStatus{InvoiceStatusSent}, f.InvoiceStatus)
		require.NotNil(t, f.DueBefore)
		assert.Equal(t, now, *f.DueBefore)
	})

	t.Run("overdue status", func(t *testing.T) {
		f := NewInvoiceFilter()
		f.InvoiceStatus = []InvoiceStatus{InvoiceStatusOverdue}
		f.ResolveOverdue(now)
		assert.Equal(t, []InvoiceStatus{InvoiceStatusSent}, f.InvoiceStatus)
		assert.NotNil(t, f.DueBefore)
	})

	t.Run("mixed with other statuses", func(t *testing.T) {
		f := NewInvoiceFilter()
		f.InvoiceStatus = []InvoiceStatus{InvoiceStatusPaid, InvoiceStatusOverdue}
		f.ResolveOverdue(now)
		assert.ElementsMatch(t, []InvoiceStatus{InvoiceStatusPaid, InvoiceStatusSent}, f.InvoiceStatus)
		assert.Nil(t, f.DueBefore)
	})

	t.Run("no overdue requested", func(t *testing.T) {
		f := NewInvoiceFilter()
		f.InvoiceStatus = []InvoiceStatus{InvoiceStatusDraft}
		f.ResolveOverdue(now)
		assert.Equal(t, []InvoiceStatus{InvoiceStatusDraft}, f.InvoiceStatus)
		assert.Nil(t, f.DueBefore)
	})
}

func TestInvoiceFilterValidate(t *testing.T) {
	start := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	f := NewInvoiceFilter()
	f.IssueDateStart = lo.ToPtr(start)
	f.IssueDateEnd = lo.ToPtr(start.AddDate(0, 0, -1))
	assert.True(t, ierr.IsValidation(f.Validate()))

	f = NewInvoiceFilter()
	f.InvoiceStatus = []InvoiceStatus{"ARCHIVED"}
	assert.True(t, ierr.IsValidation(f.Validate()))

	f = NewInvoiceFilter()
	f.Limit = lo.ToPtr(5_000)
	assert.True(t, ierr.IsValidation(f.Validate()))

	assert.NoError(t, NewInvoiceFilter().Validate())
}

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, StockStatusOutOfStock, ClassifyStock(0, 0))
	assert.Equal(t, StockStatusOutOfStock, ClassifyStock(0, 5))
	assert.Equal(t, StockStatusLow, ClassifyStock(5, 5))
	assert.Equal(t, StockStatusLow, ClassifyStock(1, 5))
	assert.Equal(t, StockStatusOK, ClassifyStock(6, 5))
}
