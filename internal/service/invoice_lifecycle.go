package service

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// invoiceLifecycle applies status transitions to an invoice row locked by the
// caller's transaction. It is shared by the invoice and payment services.
type invoiceLifecycle struct {
	ServiceParams
	stock *stockService
}

func newInvoiceLifecycle(params ServiceParams) *invoiceLifecycle {
	return &invoiceLifecycle{
		ServiceParams: params,
		stock:         &stockService{ServiceParams: params},
	}
}

// transition moves inv to target along a legal edge, with the edge's side effects:
// stock leaves on DRAFT->SENT, comes back on SENT->CANCELLED, paid date is set on PAID.
func (l *invoiceLifecycle) transition(ctx context.Context, inv *invoice.Invoice, target types.InvoiceStatus, now time.Time) error {
	from := inv.InvoiceStatus
	if err := types.ValidateInvoiceTransition(from, target); err != nil {
		return err
	}

	switch target {
	case types.InvoiceStatusSent:
		if !inv.StockApplied {
			if err := l.moveStock(ctx, inv, -1, types.StockReasonInvoiceSent); err != nil {
				return err
			}
			inv.StockApplied = true
		}
	case types.InvoiceStatusCancelled:
		if inv.StockApplied {
			if err := l.moveStock(ctx, inv, 1, types.StockReasonInvoiceCancelled); err != nil {
				return err
			}
			inv.StockApplied = false
		}
	case types.InvoiceStatusPaid:
		inv.PaidDate = lo.ToPtr(now)
	}

	inv.InvoiceStatus = target
	if err := l.InvoiceRepo.Update(ctx, inv); err != nil {
		return err
	}

	l.Metrics.InvoiceTransitions.WithLabelValues(inv.TenantID, string(from), string(target)).Inc()
	l.Logger.Infow("invoice transitioned",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"from", from,
		"to", target,
	)
	return nil
}

// moveStock applies sign * quantity for every catalog line of the invoice
func (l *invoiceLifecycle) moveStock(ctx context.Context, inv *invoice.Invoice, sign int64, reason types.StockMovementReason) error {
	quantities := inv.ProductQuantities()
	if len(quantities) == 0 {
		return nil
	}

	deltas := lo.MapValues(quantities, func(qty int64, _ string) int64 { return sign * qty })
	movements, err := l.stock.applyDeltas(ctx, deltas, reason, lo.ToPtr(inv.ID), inv.Number)
	if err != nil {
		return err
	}
	l.Metrics.StockMovements.WithLabelValues(inv.TenantID, string(reason)).Add(float64(len(movements)))
	return nil
}

// requireStatus fails with InvalidInvoiceState unless inv is in one of the given statuses
func requireStatus(inv *invoice.Invoice, operation string, allowed ...types.InvoiceStatus) error {
	if lo.Contains(allowed, inv.InvoiceStatus) {
		return nil
	}
	return ierr.NewErrorf("invoice %s is %s", inv.ID, inv.InvoiceStatus).
		WithHintf("Invoice in status %s does not allow %s", inv.InvoiceStatus, operation).
		WithReportableDetails(map[string]any{
			"invoice_id": inv.ID,
			"current":    inv.InvoiceStatus,
			"allowed":    allowed,
			"operation":  operation,
		}).
		Mark(ierr.ErrInvalidInvoiceState)
}
