package settings

import "context"

type Repository interface {
	// Get returns NotFound when the tenant has no settings row
	Get(ctx context.Context) (*Settings, error)
	// GetForUpdate locks the tenant row inside a transaction, inserting
	// defaults first when the tenant has none
	GetForUpdate(ctx context.Context, defaults *Settings) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}
