package service

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	"github.com/RiveraMg/MiaBot/internal/domain/payment"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/idempotency"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

type PaymentService interface {
	RecordPayment(ctx context.Context, invoiceID string, req dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error)
	ListPayments(ctx context.Context, invoiceID string) (*dto.ListPaymentsResponse, error)
}

type paymentService struct {
	ServiceParams
	lifecycle *invoiceLifecycle
	idempGen  *idempotency.Generator
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
		lifecycle:     newInvoiceLifecycle(params),
		idempGen:      idempotency.NewGenerator(),
	}
}

func (s *paymentService) RecordPayment(ctx context.Context, invoiceID string, req dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// a payment with a caller reference is keyed on its content
	if req.IdempotencyKey == nil && req.Reference != "" {
		req.IdempotencyKey = lo.ToPtr(s.idempGen.GenerateKey(idempotency.ScopePayment, map[string]interface{}{
			"invoice_id": invoiceID,
			"amount":     req.Amount,
			"method":     req.Method,
			"reference":  req.Reference,
		}))
	}

	if req.IdempotencyKey != nil {
		if resp, err := s.replay(ctx, invoiceID, req); err == nil || !ierr.IsNotFound(err) {
			return resp, err
		}
	}

	var (
		pay    *payment.Payment
		inv    *invoice.Invoice
		paidUp bool
	)
	now := time.Now().UTC()

	err := s.retryOnConflict(ctx, "record_payment", func() error {
		return s.DB.WithTx(ctx, func(txCtx context.Context) error {
			current, err := s.InvoiceRepo.GetForUpdate(txCtx, invoiceID)
			if err != nil {
				return err
			}
			// a paid invoice has nothing left to pay, it fails as an overpayment below
			if err := requireStatus(current, "payments", types.InvoiceStatusSent, types.InvoiceStatusPaid); err != nil {
				return err
			}

			existing, err := s.PaymentRepo.List(txCtx, &types.PaymentFilter{
				QueryFilter: types.NewNoLimitQueryFilter(),
				InvoiceIDs:  []string{current.ID},
			})
			if err != nil {
				return err
			}

			paid := payment.Sum(existing)
			balance := current.Balance(paid)
			if req.Amount > balance {
				return ierr.NewError("payment exceeds invoice balance").
					WithHint("Payment amount exceeds the outstanding balance").
					WithReportableDetails(map[string]any{
						"total":   current.Total,
						"paid":    paid,
						"balance": balance,
						"amount":  req.Amount,
					}).
					Mark(ierr.ErrOverpayment)
			}

			p := req.ToPayment(txCtx, current.ID, now)
			if err := p.Validate(); err != nil {
				return err
			}
			if err := s.PaymentRepo.Create(txCtx, p); err != nil {
				return err
			}

			paidUp = req.Amount == balance
			if paidUp {
				if err := s.lifecycle.transition(txCtx, current, types.InvoiceStatusPaid, now); err != nil {
					return err
				}
			}

			pay = p
			inv = current
			return nil
		})
	})
	if err != nil {
		// a concurrent request with the same key committed first
		if req.IdempotencyKey != nil && ierr.IsAlreadyExists(err) {
			return s.replay(ctx, invoiceID, req)
		}
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)
	s.Metrics.PaymentsRecorded.WithLabelValues(tenantID, string(pay.Method)).Inc()
	s.Metrics.PaymentAmount.WithLabelValues(tenantID).Add(float64(pay.Amount))
	s.Logger.Infow("payment recorded",
		"payment_id", pay.ID,
		"invoice_id", inv.ID,
		"amount", pay.Amount,
		"method", pay.Method,
		"invoice_paid", paidUp,
	)

	paidTotal, err := s.paidTotal(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	resp := &dto.RecordPaymentResponse{
		Payment:        pay,
		InvoiceBalance: inv.Balance(paidTotal),
		InvoiceStatus:  inv.InvoiceStatus,
	}

	s.publish(ctx, types.EventPaymentRecorded, pay.ID, 1, resp)
	if paidUp {
		s.publish(ctx, types.EventInvoicePaid, inv.ID, inv.Version, dto.NewInvoiceResponse(inv, paidTotal, now))
	}
	return resp, nil
}

// replay answers a repeated request from the payment stored under its key.
// The key may not be reused for a different payment: invoice, amount and
// method must match, and so must the reference when the caller gave one.
func (s *paymentService) replay(ctx context.Context, invoiceID string, req dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	existing, err := s.PaymentRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if !sameRequest(existing, invoiceID, req) {
		return nil, ierr.NewError("idempotency key reused for a different payment").
			WithHint("This idempotency key was already used for a different payment").
			WithReportableDetails(map[string]any{
				"idempotency_key": *req.IdempotencyKey,
				"payment_id":      existing.ID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	paid, err := s.paidTotal(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	s.Metrics.PaymentReplays.WithLabelValues(types.GetTenantID(ctx)).Inc()
	s.Logger.Infow("payment replayed from idempotency key",
		"payment_id", existing.ID,
		"invoice_id", invoiceID,
	)
	return &dto.RecordPaymentResponse{
		Payment:        existing,
		InvoiceBalance: inv.Balance(paid),
		InvoiceStatus:  inv.InvoiceStatus,
		Replayed:       true,
	}, nil
}

// sameRequest expects req to be validated, so its method is already defaulted
func sameRequest(p *payment.Payment, invoiceID string, req dto.RecordPaymentRequest) bool {
	if p.InvoiceID != invoiceID || p.Amount != req.Amount {
		return false
	}
	if p.Method != req.Method {
		return false
	}
	return req.Reference == "" || p.Reference == req.Reference
}

func (s *paymentService) paidTotal(ctx context.Context, invoiceID string) (int64, error) {
	sums, err := s.PaymentRepo.SumByInvoices(ctx, []string{invoiceID})
	if err != nil {
		return 0, err
	}
	return sums[invoiceID], nil
}

func (s *paymentService) ListPayments(ctx context.Context, invoiceID string) (*dto.ListPaymentsResponse, error) {
	if _, err := s.InvoiceRepo.Get(ctx, invoiceID); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.List(ctx, &types.PaymentFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		InvoiceIDs:  []string{invoiceID},
	})
	if err != nil {
		return nil, err
	}
	return &dto.ListPaymentsResponse{
		Items:     payments,
		TotalPaid: payment.Sum(payments),
		InvoiceID: invoiceID,
	}, nil
}
