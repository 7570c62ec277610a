package cache

import (
	"context"
	"testing"
	"time"

	"github.com/RiveraMg/MiaBot/internal/config"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/stretchr/testify/assert"
)

func newTestCache(enabled bool) Cache {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = enabled
	return NewInMemoryCache(cfg, logger.NewNoopLogger())
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	settingsKey := GenerateKey(PrefixSettings, "tenant_a")
	c.Set(ctx, settingsKey, "value", 0)
	got, ok := c.Get(ctx, settingsKey)
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	c.Delete(ctx, settingsKey)
	_, ok = c.Get(ctx, settingsKey)
	assert.False(t, ok)

	c.Set(ctx, "short", 1, time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, ok = c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	c.Set(ctx, GenerateKey(PrefixDashboard, "tenant_a"), 1, time.Minute)
	c.Set(ctx, GenerateKey(PrefixDashboard, "tenant_b"), 2, time.Minute)
	c.Set(ctx, GenerateKey(PrefixSettings, "tenant_a"), 3, time.Minute)

	c.DeleteByPrefix(ctx, PrefixDashboard)

	_, ok := c.Get(ctx, GenerateKey(PrefixDashboard, "tenant_a"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixDashboard, "tenant_b"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixSettings, "tenant_a"))
	assert.True(t, ok)
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(false)

	c.Set(ctx, "key", "value", time.Minute)
	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "dashboard:v1::tenant_a", GenerateKey(PrefixDashboard, "tenant_a"))
	assert.Equal(t, "p:a:1", GenerateKey("p", "a", 1))
}
