package service

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/cache"
	"github.com/RiveraMg/MiaBot/internal/domain/settings"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
)

const settingsCacheTTL = 10 * time.Minute

type SettingsService interface {
	GetSettings(ctx context.Context) (*dto.SettingsResponse, error)
	UpdateSettings(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type settingsService struct {
	ServiceParams
}

func NewSettingsService(params ServiceParams) SettingsService {
	return &settingsService{ServiceParams: params}
}

func (s *settingsService) GetSettings(ctx context.Context) (*dto.SettingsResponse, error) {
	st, isDefault, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SettingsResponse{Settings: st, IsDefault: isDefault}, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var st *settings.Settings
	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()
		defaults := settings.Defaults(types.GetTenantID(txCtx), s.Config.Ledger)
		defaults.CreatedAt = now
		defaults.UpdatedAt = now

		// read the stored row under lock, never the cached copy
		current, err := s.SettingsRepo.GetForUpdate(txCtx, defaults)
		if err != nil {
			return err
		}

		req.Apply(current)
		if err := current.Validate(); err != nil {
			return err
		}
		current.UpdatedAt = now
		current.UpdatedBy = types.GetUserID(txCtx)

		if err := s.SettingsRepo.Upsert(txCtx, current); err != nil {
			return err
		}
		st = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Cache.Delete(ctx, settingsCacheKey(ctx))

	s.Logger.Infow("tenant settings updated",
		"tenant_id", st.TenantID,
		"tax_rate", st.TaxRate.String(),
		"invoice_prefix", st.InvoicePrefix,
		"payment_terms_days", st.PaymentTermsDays,
	)
	return &dto.SettingsResponse{Settings: st}, nil
}

func settingsCacheKey(ctx context.Context) string {
	return cache.GenerateKey(cache.PrefixSettings, types.GetTenantID(ctx))
}

// loadSettings returns a private copy of the tenant settings, falling back
// to configured defaults for a tenant that never saved any.
func (p ServiceParams) loadSettings(ctx context.Context) (*settings.Settings, bool, error) {
	key := settingsCacheKey(ctx)
	if v, ok := p.Cache.Get(ctx, key); ok {
		if st, ok := v.(settings.Settings); ok {
			return &st, false, nil
		}
	}

	st, err := p.SettingsRepo.Get(ctx)
	if err != nil {
		if ierr.IsNotFound(err) {
			return settings.Defaults(types.GetTenantID(ctx), p.Config.Ledger), true, nil
		}
		return nil, false, err
	}

	p.Cache.Set(ctx, key, *st, settingsCacheTTL)
	return st, false, nil
}
