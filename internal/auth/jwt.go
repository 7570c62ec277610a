package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/RiveraMg/MiaBot/internal/config"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 30 * 24 * time.Hour

type jwtAuth struct {
	AuthConfig config.AuthConfig
	now        func() time.Time
}

func NewJWTAuth(cfg *config.Configuration) *jwtAuth {
	return &jwtAuth{
		AuthConfig: cfg.Auth,
		now:        time.Now,
	}
}

func (a *jwtAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(a.AuthConfig.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	tenantID, _ := claims["tenant_id"].(string)
	if tenantID == "" {
		return nil, ierr.NewError("token missing tenant ID").
			WithHint("Token missing tenant ID").
			Mark(ierr.ErrPermissionDenied)
	}

	role, _ := claims["role"].(string)
	department, _ := claims["department"].(string)

	return &Claims{
		UserID:     userID,
		TenantID:   tenantID,
		Role:       types.Role(role),
		Department: types.Department(department),
	}, nil
}

// GenerateToken signs an HS256 token. Issuing tokens belongs to the identity
// service; this is used by local tooling and tests.
func (a *jwtAuth) GenerateToken(c Claims) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"user_id":    c.UserID,
		"tenant_id":  c.TenantID,
		"role":       string(c.Role),
		"department": string(c.Department),
		"exp":        now.Add(tokenTTL).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.AuthConfig.Secret))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}
