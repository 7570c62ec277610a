package testutil

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/domain/settings"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
)

// InMemorySettingsStore implements settings.Repository, keyed by tenant
type InMemorySettingsStore struct {
	*InMemoryStore[*settings.Settings]
}

func NewInMemorySettingsStore() *InMemorySettingsStore {
	return &InMemorySettingsStore{
		InMemoryStore: NewInMemoryStore(func(s *settings.Settings) *settings.Settings {
			if s == nil {
				return nil
			}
			c := *s
			return &c
		}),
	}
}

func (s *InMemorySettingsStore) Get(ctx context.Context) (*settings.Settings, error) {
	tenantID := types.GetTenantID(ctx)
	st, err := s.InMemoryStore.Get(ctx, tenantID)
	if err != nil {
		return nil, ierr.NewErrorf("settings for tenant %s not found", tenantID).
			WithHint("Tenant settings not found").
			Mark(ierr.ErrNotFound)
	}
	return st, nil
}

// GetForUpdate relies on the mock client serializing transactions for the lock
func (s *InMemorySettingsStore) GetForUpdate(ctx context.Context, defaults *settings.Settings) (*settings.Settings, error) {
	if !InTx(ctx) {
		return nil, ierr.NewError("row lock requested outside a transaction").
			Mark(ierr.ErrSystem)
	}
	if _, err := s.Get(ctx); err != nil {
		if err := s.Upsert(ctx, defaults); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx)
}

func (s *InMemorySettingsStore) Upsert(ctx context.Context, st *settings.Settings) error {
	tenantID := types.GetTenantID(ctx)
	st.TenantID = tenantID
	if _, err := s.InMemoryStore.Get(ctx, tenantID); err != nil {
		return s.InMemoryStore.Create(ctx, tenantID, st)
	}
	return s.InMemoryStore.Update(ctx, tenantID, st)
}
