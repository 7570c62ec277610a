package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/RiveraMg/MiaBot/internal/config"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/gin-gonic/gin"
	goCache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// TenantRateLimiter keeps one token bucket per tenant. Idle buckets expire.
type TenantRateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters *goCache.Cache
}

func NewTenantRateLimiter(cfg *config.Configuration) *TenantRateLimiter {
	return &TenantRateLimiter{
		limit:    rate.Limit(cfg.RateLimit.RequestsPerSecond),
		burst:    cfg.RateLimit.Burst,
		limiters: goCache.New(10*time.Minute, 20*time.Minute),
	}
}

func (l *TenantRateLimiter) limiter(tenantID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.limiters.Get(tenantID); ok {
		// touch so active tenants keep their bucket
		l.limiters.SetDefault(tenantID, v)
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.SetDefault(tenantID, lim)
	return lim
}

// Allow reports whether the tenant may issue one more request now
func (l *TenantRateLimiter) Allow(tenantID string) bool {
	return l.limiter(tenantID).Allow()
}

// RateLimitMiddleware must run after authentication so the tenant is known
func RateLimitMiddleware(cfg *config.Configuration, limiter *TenantRateLimiter) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tenantID := types.GetTenantID(c.Request.Context())
		if !limiter.Allow(tenantID) {
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, ierr.NewError("rate limit exceeded").
				WithHint("Too many requests").
				WithReportableDetails(map[string]any{"tenant_id": tenantID}).
				Mark(ierr.ErrPermissionDenied))
			return
		}
		c.Next()
	}
}
