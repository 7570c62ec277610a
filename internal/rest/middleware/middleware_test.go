package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RiveraMg/MiaBot/internal/auth"
	"github.com/RiveraMg/MiaBot/internal/config"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/telemetry"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) ierr.ErrorResponse {
	t.Helper()
	var resp ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler_Envelope(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/fail", func(c *gin.Context) {
		c.Error(ierr.NewError("stock too low").
			WithHint("Insufficient stock").
			WithReportableDetails(map[string]any{"product_id": "prod_1", "available": 2, "requested": 5}).
			Mark(ierr.ErrInsufficientStock))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(assert.AnError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Insufficient stock", resp.Error.Display)
	assert.Equal(t, ierr.ErrCodeInsufficientStock, resp.Error.Details["code"])
	assert.Equal(t, "prod_1", resp.Error.Details["product_id"])
	assert.EqualValues(t, 2, resp.Error.Details["available"])
	assert.EqualValues(t, 5, resp.Error.Details["requested"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp = decodeEnvelope(t, w)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Display)
	assert.Equal(t, ierr.ErrCodeSystemError, resp.Error.Details["code"])
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		sentinel error
		status   int
	}{
		{ierr.ErrValidation, http.StatusBadRequest},
		{ierr.ErrNotFound, http.StatusNotFound},
		{ierr.ErrPermissionDenied, http.StatusForbidden},
		{ierr.ErrInvalidTransition, http.StatusConflict},
		{ierr.ErrOverpayment, http.StatusConflict},
		{ierr.ErrStorageUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		r := gin.New()
		r.Use(ErrorHandler())
		r.GET("/", func(c *gin.Context) {
			c.Error(ierr.NewError("x").WithHint("x").Mark(tt.sentinel))
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tt.status, w.Code, tt.sentinel.Error())
	}
}

type authFixture struct {
	router   *gin.Engine
	provider auth.Provider
}

func newAuthFixture() *authFixture {
	cfg := &config.Configuration{Auth: config.AuthConfig{Secret: "test-secret"}}
	provider := auth.NewProvider(cfg)
	log := logger.NewNoopLogger()

	r := gin.New()
	r.Use(ErrorHandler(), AuthenticateMiddleware(provider, log))
	r.GET("/whoami", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"tenant_id":  types.GetTenantID(ctx),
			"user_id":    types.GetUserID(ctx),
			"role":       types.GetRole(ctx),
			"department": types.GetDepartment(ctx),
		})
	})
	r.GET("/finance", RequireFinanceAccess(log), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return &authFixture{router: r, provider: provider}
}

func (f *authFixture) do(t *testing.T, path, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(types.HeaderAuthorization, header)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *authFixture) bearer(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token, err := f.provider.GenerateToken(claims)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthenticateMiddleware_SetsClaims(t *testing.T) {
	f := newAuthFixture()

	w := f.do(t, "/whoami", f.bearer(t, auth.Claims{
		UserID:     "usr_1",
		TenantID:   "tenant_a",
		Role:       types.RoleManager,
		Department: types.DepartmentSales,
	}))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "tenant_a", body["tenant_id"])
	assert.Equal(t, "usr_1", body["user_id"])
	assert.Equal(t, "MANAGER", body["role"])
	assert.Equal(t, "SALES", body["department"])
}

func TestAuthenticateMiddleware_Rejects(t *testing.T) {
	f := newAuthFixture()

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		w := f.do(t, "/whoami", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		resp := decodeEnvelope(t, w)
		assert.Equal(t, ierr.ErrCodePermissionDenied, resp.Error.Details["code"])
	}
}

func TestRequireFinanceAccess(t *testing.T) {
	f := newAuthFixture()

	tests := []struct {
		name   string
		role   types.Role
		dept   types.Department
		status int
	}{
		{"admin outside finance", types.RoleAdmin, types.DepartmentOperations, http.StatusNoContent},
		{"employee in finance", types.RoleEmployee, types.DepartmentFinance, http.StatusNoContent},
		{"manager in sales", types.RoleManager, types.DepartmentSales, http.StatusForbidden},
		{"employee in hr", types.RoleEmployee, types.DepartmentHR, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, "/finance", f.bearer(t, auth.Claims{
				UserID: "usr_1", TenantID: "tenant_a", Role: tt.role, Department: tt.dept,
			}))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, types.GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(types.HeaderRequestID, "req-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(types.HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(types.HeaderRequestID))
	assert.Equal(t, w.Header().Get(types.HeaderRequestID), w.Body.String())
}

func TestRateLimitMiddleware_PerTenant(t *testing.T) {
	cfg := &config.Configuration{RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2}}
	limiter := NewTenantRateLimiter(cfg)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := types.SetTenantID(c.Request.Context(), c.GetHeader("X-Tenant"))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RateLimitMiddleware(cfg, limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(tenant string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant", tenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("a"))
	assert.Equal(t, http.StatusNoContent, call("a"))
	assert.Equal(t, http.StatusTooManyRequests, call("a"))
	assert.Equal(t, http.StatusNoContent, call("b"))
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := telemetry.NewLedgerMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(MetricsMiddleware(metrics))
	r.GET("/v1/invoices/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices/inv_1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "/v1/invoices/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.HTTPInFlight))
}
