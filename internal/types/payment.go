package types

import (
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/samber/lo"
)

// PaymentMethod is how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodCheck    PaymentMethod = "CHECK"
	PaymentMethodOther    PaymentMethod = "OTHER"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodTransfer,
	PaymentMethodCard,
	PaymentMethodCheck,
	PaymentMethodOther,
}

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Validate() error {
	if !lo.Contains(paymentMethods, m) {
		return ierr.NewError("invalid payment method").
			WithHint("Please provide a valid payment method").
			WithReportableDetails(map[string]any{
				"allowed": paymentMethods,
				"value":   m,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentFilter filters payment listings
type PaymentFilter struct {
	*QueryFilter
	InvoiceIDs     []string `json:"invoice_ids,omitempty" form:"invoice_ids"`
	IdempotencyKey string   `json:"-" form:"-"`
}

func NewNoLimitPaymentFilter() *PaymentFilter {
	return &PaymentFilter{QueryFilter: NewNoLimitQueryFilter()}
}
