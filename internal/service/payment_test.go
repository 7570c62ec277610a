package service

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/rest/middleware"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	ledgerTestSuite
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) TestPartialThenFullPaymentMarksPaid() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000) // total 119_000

	first, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 19_000})
	s.Require().NoError(err)
	s.Equal(int64(100_000), first.InvoiceBalance)
	s.Equal(types.InvoiceStatusSent, first.InvoiceStatus)
	s.False(first.Replayed)
	s.Equal(types.PaymentMethodCash, first.Payment.Method)
	s.True(strings.HasPrefix(first.Payment.Reference, types.SHORT_ID_PREFIX_RECEIPT))

	second, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{
		Amount: 100_000,
		Method: types.PaymentMethodTransfer,
	})
	s.Require().NoError(err)
	s.Equal(int64(0), second.InvoiceBalance)
	s.Equal(types.InvoiceStatusPaid, second.InvoiceStatus)

	got, err := s.invoices.GetInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, got.InvoiceStatus)
	s.NotNil(got.PaidDate)
	s.Equal(int64(119_000), got.AmountPaid)
	s.Equal(int64(0), got.Balance)
	s.Nil(got.DaysUntilDue)

	list, err := s.payments.ListPayments(ctx, inv.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 2)
	s.Equal(int64(119_000), list.TotalPaid)

	s.Len(s.GetPublisher().Events(types.EventPaymentRecorded), 2)
	s.Len(s.GetPublisher().Events(types.EventInvoicePaid), 1)
}

func (s *PaymentServiceSuite) TestOverpaymentAfterFullPaymentIsRejected() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000)

	_, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: inv.Total})
	s.Require().NoError(err)

	_, err = s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 1})
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrOverpayment))

	got, err := s.invoices.GetInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, got.InvoiceStatus)
	s.Equal(int64(0), got.Balance)
}

func (s *PaymentServiceSuite) TestOverpaymentCarriesBalanceDetails() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000)

	_, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 20_000})
	s.Require().NoError(err)

	_, err = s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 100_000})
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrOverpayment))
	s.Equal(ierr.ErrCodeOverpayment, ierr.Code(err))

	details := middleware.NewErrorResponse(err).Error.Details
	s.Equal("overpayment", details["code"])
	s.EqualValues(119_000, details["total"])
	s.EqualValues(20_000, details["paid"])
	s.EqualValues(99_000, details["balance"])
	s.EqualValues(100_000, details["amount"])

	list, err := s.payments.ListPayments(ctx, inv.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
	s.Equal(int64(20_000), list.TotalPaid)
}

func (s *PaymentServiceSuite) TestHugeAmountAfterPartialPaymentIsRejected() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000) // total 119_000

	_, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 1})
	s.Require().NoError(err)

	_, err = s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: math.MaxInt64})
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrOverpayment))

	list, err := s.payments.ListPayments(ctx, inv.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
	s.Equal(int64(1), list.TotalPaid)

	got, err := s.invoices.GetInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(int64(118_999), got.Balance)
	s.Equal(types.InvoiceStatusSent, got.InvoiceStatus)
}

func (s *PaymentServiceSuite) TestPaymentsRequireSentInvoice() {
	ctx := s.GetContext()
	c := s.createClient(ctx, "Acme")
	draft := s.createInvoice(ctx, c.ID, freeLine("x", 1, 1_000))

	_, err := s.payments.RecordPayment(ctx, draft.ID, dto.RecordPaymentRequest{Amount: 100})
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrInvalidInvoiceState))

	cancelled := s.createInvoice(ctx, c.ID, freeLine("y", 1, 1_000))
	_, err = s.invoices.CancelInvoice(ctx, cancelled.ID)
	s.Require().NoError(err)
	_, err = s.payments.RecordPayment(ctx, cancelled.ID, dto.RecordPaymentRequest{Amount: 100})
	s.True(ierr.Is(err, ierr.ErrInvalidInvoiceState))

	_, err = s.payments.RecordPayment(ctx, "inv_missing", dto.RecordPaymentRequest{Amount: 100})
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestPaymentValidation() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 1_000)

	tests := []struct {
		name string
		req  dto.RecordPaymentRequest
	}{
		{"zero amount", dto.RecordPaymentRequest{Amount: 0}},
		{"negative amount", dto.RecordPaymentRequest{Amount: -5}},
		{"unknown method", dto.RecordPaymentRequest{Amount: 10, Method: "BARTER"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.payments.RecordPayment(ctx, inv.ID, tt.req)
			s.True(ierr.IsValidation(err), "unexpected error: %v", err)
		})
	}
}

func (s *PaymentServiceSuite) TestIdempotentReplay() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000)

	req := dto.RecordPaymentRequest{Amount: 50_000, IdempotencyKey: lo.ToPtr("req-1")}
	first, err := s.payments.RecordPayment(ctx, inv.ID, req)
	s.Require().NoError(err)

	again, err := s.payments.RecordPayment(ctx, inv.ID, req)
	s.Require().NoError(err)
	s.True(again.Replayed)
	s.Equal(first.Payment.ID, again.Payment.ID)
	s.Equal(first.InvoiceBalance, again.InvoiceBalance)

	list, err := s.payments.ListPayments(ctx, inv.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
	s.Len(s.GetPublisher().Events(types.EventPaymentRecorded), 1)
}

func (s *PaymentServiceSuite) TestIdempotencyKeyReuseForDifferentPayment() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000)

	_, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 50_000, IdempotencyKey: lo.ToPtr("req-1")})
	s.Require().NoError(err)

	tests := []struct {
		name string
		req  dto.RecordPaymentRequest
	}{
		{"different amount", dto.RecordPaymentRequest{Amount: 10_000}},
		{"different method", dto.RecordPaymentRequest{Amount: 50_000, Method: types.PaymentMethodCard}},
		{"different reference", dto.RecordPaymentRequest{Amount: 50_000, Reference: "TRX-1"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			tt.req.IdempotencyKey = lo.ToPtr("req-1")
			_, err := s.payments.RecordPayment(ctx, inv.ID, tt.req)
			s.Require().Error(err)
			s.True(ierr.IsAlreadyExists(err), "unexpected error: %v", err)
		})
	}

	list, err := s.payments.ListPayments(ctx, inv.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
}

func (s *PaymentServiceSuite) TestReferenceDerivesIdempotencyKey() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000)

	req := dto.RecordPaymentRequest{Amount: 10_000, Method: types.PaymentMethodTransfer, Reference: "TRX-998"}
	first, err := s.payments.RecordPayment(ctx, inv.ID, req)
	s.Require().NoError(err)
	s.NotNil(first.Payment.IdempotencyKey)

	again, err := s.payments.RecordPayment(ctx, inv.ID, req)
	s.Require().NoError(err)
	s.True(again.Replayed)

	// without a caller reference identical payments are distinct
	_, err = s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 10_000})
	s.Require().NoError(err)
	_, err = s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 10_000})
	s.Require().NoError(err)

	list, err := s.payments.ListPayments(ctx, inv.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 3)
}

func (s *PaymentServiceSuite) TestConcurrentPaymentsNeverOverpay() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000) // total 119_000

	const n = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 60_000})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if ierr.Is(err, ierr.ErrOverpayment) {
				rejected++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(n-1, rejected)

	list, err := s.payments.ListPayments(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(int64(60_000), list.TotalPaid)
}

func (s *PaymentServiceSuite) TestConcurrentInstallmentsSettleExactly() {
	ctx := s.GetContext()
	inv := s.sentInvoice(ctx, 100_000) // total 119_000

	const n = 7
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.payments.RecordPayment(ctx, inv.ID, dto.RecordPaymentRequest{Amount: 17_000})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.invoices.GetInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, got.InvoiceStatus)
	s.Equal(int64(119_000), got.AmountPaid)
	s.Len(s.GetPublisher().Events(types.EventInvoicePaid), 1)
}

func (s *PaymentServiceSuite) TestListPaymentsForMissingInvoice() {
	_, err := s.payments.ListPayments(s.GetContext(), "inv_missing")
	s.True(ierr.IsNotFound(err))
}
