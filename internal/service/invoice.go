package service

import (
	"context"
	"sort"
	"time"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	UpdateDraft(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)

	// TransitionInvoice is the public status change. PAID is only reachable by recording payments.
	TransitionInvoice(ctx context.Context, id string, target types.InvoiceStatus) (*dto.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)

	ListOverdue(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	ListDueSoon(ctx context.Context, windowDays int) (*dto.ListInvoicesResponse, error)
	ListPending(ctx context.Context) (*dto.ListInvoicesResponse, error)
}

type invoiceService struct {
	ServiceParams
	lifecycle *invoiceLifecycle
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
		lifecycle:     newInvoiceLifecycle(params),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st, _, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	now := time.Now().UTC()

	err = s.retryOnConflict(ctx, "create_invoice", func() error {
		return s.DB.WithTx(ctx, func(txCtx context.Context) error {
			if _, err := s.ClientRepo.Get(txCtx, req.ClientID); err != nil {
				return err
			}
			products, err := s.resolveProducts(txCtx, dto.ReferencedProductIDs(req.LineItems))
			if err != nil {
				return err
			}

			draft, err := req.ToInvoice(txCtx, st, products, now)
			if err != nil {
				return err
			}
			if err := draft.Validate(); err != nil {
				return err
			}

			next, err := s.InvoiceRepo.GetNextInvoiceNumber(txCtx)
			if err != nil {
				return err
			}
			draft.Number = invoice.FormatNumber(st.InvoicePrefix, s.Config.Ledger.NumberPadding, next)

			if err := s.InvoiceRepo.Create(txCtx, draft); err != nil {
				return err
			}
			inv = draft
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.InvoicesCreated.WithLabelValues(inv.TenantID).Inc()
	s.Metrics.InvoiceTotal.WithLabelValues(inv.TenantID).Observe(float64(inv.Total))
	s.Logger.Infow("invoice created",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"client_id", inv.ClientID,
		"total", inv.Total,
	)

	resp := dto.NewInvoiceResponse(inv, 0, now)
	s.publish(ctx, types.EventInvoiceCreated, inv.ID, inv.Version, resp)
	return resp, nil
}

// resolveProducts loads catalog products by id, NotFound naming the first missing one
func (s *invoiceService) resolveProducts(ctx context.Context, ids []string) (map[string]*product.Product, error) {
	out := make(map[string]*product.Product, len(ids))
	for _, id := range ids {
		p, err := s.ProductRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	paid, err := s.PaymentRepo.SumByInvoices(ctx, []string{inv.ID})
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv, paid[inv.ID], time.Now().UTC()), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	filter.ResolveOverdue(now)

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items, err := s.withPayments(ctx, invoices, now)
	if err != nil {
		return nil, err
	}
	return &dto.ListInvoicesResponse{
		Items:      items,
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *invoiceService) withPayments(ctx context.Context, invoices []*invoice.Invoice, now time.Time) ([]*dto.InvoiceResponse, error) {
	ids := lo.Map(invoices, func(inv *invoice.Invoice, _ int) string { return inv.ID })
	paid, err := s.PaymentRepo.SumByInvoices(ctx, ids)
	if err != nil {
		return nil, err
	}
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv, paid[inv.ID], now)
	}), nil
}

func (s *invoiceService) UpdateDraft(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st, _, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	err = s.retryOnConflict(ctx, "update_invoice", func() error {
		return s.DB.WithTx(ctx, func(txCtx context.Context) error {
			current, err := s.InvoiceRepo.GetForUpdate(txCtx, id)
			if err != nil {
				return err
			}
			if err := requireStatus(current, "editing", types.InvoiceStatusDraft); err != nil {
				return err
			}

			if req.ClientID != nil && *req.ClientID != current.ClientID {
				if _, err := s.ClientRepo.Get(txCtx, *req.ClientID); err != nil {
					return err
				}
				current.ClientID = *req.ClientID
			}
			if req.DueDate != nil {
				current.DueDate = req.DueDate.UTC()
			}
			if req.Notes != nil {
				current.Notes = *req.Notes
			}

			replaceItems := len(req.LineItems) > 0
			if replaceItems {
				products, err := s.resolveProducts(txCtx, dto.ReferencedProductIDs(req.LineItems))
				if err != nil {
					return err
				}
				current.LineItems = dto.BuildLineItems(txCtx, current.ID, req.LineItems, products)
			}

			if err := current.Recalculate(st.TaxRate); err != nil {
				return err
			}
			if err := current.Validate(); err != nil {
				return err
			}
			if replaceItems {
				if err := s.InvoiceRepo.ReplaceLineItems(txCtx, current); err != nil {
					return err
				}
			}
			if err := s.InvoiceRepo.Update(txCtx, current); err != nil {
				return err
			}
			inv = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	resp := dto.NewInvoiceResponse(inv, 0, time.Now().UTC())
	s.publish(ctx, types.EventInvoiceUpdated, inv.ID, inv.Version, resp)
	return resp, nil
}

func (s *invoiceService) TransitionInvoice(ctx context.Context, id string, target types.InvoiceStatus) (*dto.InvoiceResponse, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	switch target {
	case types.InvoiceStatusCancelled:
		return s.CancelInvoice(ctx, id)
	case types.InvoiceStatusPaid:
		return nil, ierr.NewError("invoices are marked paid by recording payments").
			WithHint("Record a payment for the outstanding balance to mark the invoice as paid").
			WithReportableDetails(map[string]any{
				"invoice_id": id,
				"requested":  target,
			}).
			Mark(ierr.ErrInvalidTransition)
	}

	var inv *invoice.Invoice
	now := time.Now().UTC()
	err := s.retryOnConflict(ctx, "transition_invoice", func() error {
		return s.DB.WithTx(ctx, func(txCtx context.Context) error {
			current, err := s.InvoiceRepo.GetForUpdate(txCtx, id)
			if err != nil {
				return err
			}
			if err := s.lifecycle.transition(txCtx, current, target, now); err != nil {
				return err
			}
			inv = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	resp := dto.NewInvoiceResponse(inv, 0, now)
	if target == types.InvoiceStatusSent {
		s.publish(ctx, types.EventInvoiceSent, inv.ID, inv.Version, resp)
	}
	return resp, nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	now := time.Now().UTC()

	err := s.retryOnConflict(ctx, "cancel_invoice", func() error {
		return s.DB.WithTx(ctx, func(txCtx context.Context) error {
			current, err := s.InvoiceRepo.GetForUpdate(txCtx, id)
			if err != nil {
				return err
			}

			paid, err := s.PaymentRepo.SumByInvoices(txCtx, []string{current.ID})
			if err != nil {
				return err
			}
			if paid[current.ID] > 0 {
				return ierr.NewErrorf("invoice %s has payments", current.ID).
					WithHint("An invoice with recorded payments cannot be cancelled").
					WithReportableDetails(map[string]any{
						"invoice_id":  current.ID,
						"amount_paid": paid[current.ID],
					}).
					Mark(ierr.ErrInvoiceHasPayments)
			}

			if err := s.lifecycle.transition(txCtx, current, types.InvoiceStatusCancelled, now); err != nil {
				return err
			}
			inv = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	resp := dto.NewInvoiceResponse(inv, 0, now)
	s.publish(ctx, types.EventInvoiceCancelled, inv.ID, inv.Version, resp)
	return resp, nil
}

func (s *invoiceService) ListOverdue(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusOverdue}
	return s.ListInvoices(ctx, filter)
}

func (s *invoiceService) ListDueSoon(ctx context.Context, windowDays int) (*dto.ListInvoicesResponse, error) {
	if windowDays <= 0 {
		windowDays = s.Config.Ledger.DueSoonDays
	}

	now := time.Now().UTC()
	filter := types.NewNoLimitInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusSent}
	filter.DueDateStart = lo.ToPtr(now)
	filter.DueDateEnd = lo.ToPtr(types.AddDays(now, windowDays))

	resp, err := s.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(resp.Items, func(i, j int) bool {
		return resp.Items[i].DueDate.Before(resp.Items[j].DueDate)
	})
	return resp, nil
}

func (s *invoiceService) ListPending(ctx context.Context) (*dto.ListInvoicesResponse, error) {
	filter := types.NewNoLimitInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusSent}

	resp, err := s.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(resp.Items, func(i, j int) bool {
		return resp.Items[i].DueDate.Before(resp.Items[j].DueDate)
	})
	return resp, nil
}
