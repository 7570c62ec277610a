package testutil

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/types"
)

// SetupContext returns a context for the default tenant acting as an admin
func SetupContext() context.Context {
	return SetupTenantContext(types.DefaultTenantID)
}

// SetupTenantContext returns a context for another tenant, for isolation tests
func SetupTenantContext(tenantID string) context.Context {
	ctx := context.Background()
	ctx = types.SetTenantID(ctx, tenantID)
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	ctx = types.SetRole(ctx, types.RoleAdmin)
	return ctx
}
