package auth

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/config"
	"github.com/RiveraMg/MiaBot/internal/types"
)

// Claims is the actor identity carried by a bearer token
type Claims struct {
	UserID     string
	TenantID   string
	Role       types.Role
	Department types.Department
}

// HasFinanceAccess reports whether the actor may reach the ledger
func (c *Claims) HasFinanceAccess() bool {
	return c != nil && types.HasFinanceAccess(c.Role, c.Department)
}

type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
	GenerateToken(claims Claims) (string, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewJWTAuth(cfg)
}
