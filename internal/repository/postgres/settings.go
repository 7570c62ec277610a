package postgres

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/domain/settings"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/types"
)

type settingsRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewSettingsRepository creates a new instance of tenant settings repository
func NewSettingsRepository(db *postgres.DB, logger *logger.Logger) settings.Repository {
	return &settingsRepository{
		db:     db,
		logger: logger,
	}
}

const settingsSelect = `SELECT tenant_id, tax_rate, invoice_prefix, payment_terms_days, created_at, updated_at, updated_by
		FROM tenant_settings WHERE tenant_id = $1`

func (r *settingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	tenantID := types.GetTenantID(ctx)

	var s settings.Settings
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &s, settingsSelect, tenantID); err != nil {
		return nil, classifyGet(err, "settings for tenant", tenantID)
	}
	return &s, nil
}

func (r *settingsRepository) GetForUpdate(ctx context.Context, defaults *settings.Settings) (*settings.Settings, error) {
	if !r.db.InTx(ctx) {
		return nil, ierr.NewError("row lock requested outside a transaction").
			Mark(ierr.ErrSystem)
	}
	tenantID := types.GetTenantID(ctx)
	q := r.db.GetQuerier(ctx)

	// the row must exist for concurrent first updates to serialize on its lock
	defaults.TenantID = tenantID
	insert := `
		INSERT INTO tenant_settings (tenant_id, tax_rate, invoice_prefix, payment_terms_days, created_at, updated_at, updated_by)
		VALUES (:tenant_id, :tax_rate, :invoice_prefix, :payment_terms_days, :created_at, :updated_at, :updated_by)
		ON CONFLICT (tenant_id) DO NOTHING`
	if _, err := q.NamedExecContext(ctx, insert, defaults); err != nil {
		return nil, postgres.ClassifyError(err, "insert default tenant settings")
	}

	var s settings.Settings
	if err := q.GetContext(ctx, &s, settingsSelect+" FOR UPDATE", tenantID); err != nil {
		return nil, classifyGet(err, "settings for tenant", tenantID)
	}
	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *settings.Settings) error {
	r.logger.Debugw("saving tenant settings",
		"tenant_id", s.TenantID,
		"tax_rate", s.TaxRate.String(),
		"invoice_prefix", s.InvoicePrefix,
	)

	query := `
		INSERT INTO tenant_settings (tenant_id, tax_rate, invoice_prefix, payment_terms_days, created_at, updated_at, updated_by)
		VALUES (:tenant_id, :tax_rate, :invoice_prefix, :payment_terms_days, :created_at, :updated_at, :updated_by)
		ON CONFLICT (tenant_id) DO UPDATE SET
			tax_rate = EXCLUDED.tax_rate,
			invoice_prefix = EXCLUDED.invoice_prefix,
			payment_terms_days = EXCLUDED.payment_terms_days,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, s); err != nil {
		return postgres.ClassifyError(err, "upsert tenant settings")
	}
	return nil
}
