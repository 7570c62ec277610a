package middleware

import (
	"net/http"
	"strings"

	"github.com/RiveraMg/MiaBot/internal/auth"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware validates the Bearer token in the Authorization header
// and puts the tenant, user, role and department in the request context
func AuthenticateMiddleware(provider auth.Provider, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, ierr.NewError("missing authorization header").
				WithHint("Unauthorized").
				Mark(ierr.ErrPermissionDenied))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, ierr.NewError("malformed authorization header").
				WithHint("Invalid authorization header format").
				Mark(ierr.ErrPermissionDenied))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := provider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			abortWithError(c, http.StatusUnauthorized, err)
			return
		}

		ctx := c.Request.Context()
		ctx = types.SetUserID(ctx, claims.UserID)
		ctx = types.SetTenantID(ctx, claims.TenantID)
		ctx = types.SetRole(ctx, claims.Role)
		ctx = types.SetDepartment(ctx, claims.Department)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireFinanceAccess lets through admins and members of the finance department
func RequireFinanceAccess(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		role := types.GetRole(ctx)
		dept := types.GetDepartment(ctx)

		if !types.HasFinanceAccess(role, dept) {
			logger.Infow("finance access denied",
				"user_id", types.GetUserID(ctx),
				"tenant_id", types.GetTenantID(ctx),
				"role", role,
				"department", dept,
				"path", c.Request.URL.Path,
			)
			abortWithError(c, http.StatusForbidden, ierr.NewError("finance access required").
				WithHint("Finance access is restricted to admins and the finance department").
				WithReportableDetails(map[string]any{"role": role, "department": dept}).
				Mark(ierr.ErrPermissionDenied))
			return
		}

		c.Next()
	}
}
