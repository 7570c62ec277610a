package dto

import (
	"github.com/RiveraMg/MiaBot/internal/domain/settings"
	"github.com/RiveraMg/MiaBot/internal/validator"
	"github.com/shopspring/decimal"
)

// UpdateSettingsRequest changes tenant ledger parameters. Omitted fields keep their value.
type UpdateSettingsRequest struct {
	TaxRate          *decimal.Decimal `json:"tax_rate,omitempty"`
	InvoicePrefix    *string          `json:"invoice_prefix,omitempty" validate:"omitempty,min=1,max=10,alphanum"`
	PaymentTermsDays *int             `json:"payment_terms_days,omitempty" validate:"omitempty,min=0,max=365"`
}

func (r *UpdateSettingsRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *UpdateSettingsRequest) Apply(s *settings.Settings) {
	if r.TaxRate != nil {
		s.TaxRate = *r.TaxRate
	}
	if r.InvoicePrefix != nil {
		s.InvoicePrefix = *r.InvoicePrefix
	}
	if r.PaymentTermsDays != nil {
		s.PaymentTermsDays = *r.PaymentTermsDays
	}
}

type SettingsResponse struct {
	*settings.Settings

	// is_default is true while the tenant has never saved settings
	IsDefault bool `json:"is_default"`
}
