package settings

import (
	"time"

	"github.com/RiveraMg/MiaBot/internal/config"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/shopspring/decimal"
)

// Settings are the per tenant ledger parameters
type Settings struct {
	TenantID         string          `db:"tenant_id" json:"tenant_id"`
	TaxRate          decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	InvoicePrefix    string          `db:"invoice_prefix" json:"invoice_prefix"`
	PaymentTermsDays int             `db:"payment_terms_days" json:"payment_terms_days"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
	UpdatedBy        string          `db:"updated_by" json:"updated_by"`
}

// Defaults returns the settings applied to a tenant that never saved any
func Defaults(tenantID string, cfg config.LedgerConfig) *Settings {
	return &Settings{
		TenantID:         tenantID,
		TaxRate:          cfg.DefaultTaxRate,
		InvoicePrefix:    cfg.InvoicePrefix,
		PaymentTermsDays: cfg.PaymentTermsDays,
	}
}

func (s *Settings) Validate() error {
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ierr.NewError("tax rate out of range").
			WithHint("Tax rate must be between 0 and 1").
			WithReportableDetails(map[string]any{
				"field": "tax_rate",
				"value": s.TaxRate.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if s.InvoicePrefix == "" || len(s.InvoicePrefix) > 10 {
		return ierr.NewError("invalid invoice prefix").
			WithHint("Invoice prefix must have between 1 and 10 characters").
			WithReportableDetails(map[string]any{
				"field": "invoice_prefix",
				"value": s.InvoicePrefix,
			}).
			Mark(ierr.ErrValidation)
	}
	if s.PaymentTermsDays < 0 || s.PaymentTermsDays > 365 {
		return ierr.NewError("invalid payment terms").
			WithHint("Payment terms must be between 0 and 365 days").
			WithReportableDetails(map[string]any{
				"field": "payment_terms_days",
				"value": s.PaymentTermsDays,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
