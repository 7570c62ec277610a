package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigReadsFile(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.19").Equal(cfg.Ledger.DefaultTaxRate))
	assert.Equal(t, "FAC", cfg.Ledger.InvoicePrefix)
	assert.Equal(t, 5, cfg.Ledger.NumberPadding)
	assert.Equal(t, uint64(3), cfg.Ledger.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Ledger.RetryInitialInterval)
	assert.Equal(t, time.Minute, cfg.Events.MaxElapsedTime)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.Equal(t, "miabot", cfg.Postgres.DBName)
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("MIABOT_LEDGER_DEFAULT_TAX_RATE", "0.05")
	t.Setenv("MIABOT_LEDGER_INVOICE_PREFIX", "INV")
	t.Setenv("MIABOT_LEDGER_PAYMENT_TERMS_DAYS", "15")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.05").Equal(cfg.Ledger.DefaultTaxRate))
	assert.Equal(t, "INV", cfg.Ledger.InvoicePrefix)
	assert.Equal(t, 15, cfg.Ledger.PaymentTermsDays)
}

func TestNewConfigRejectsTaxRateOutOfRange(t *testing.T) {
	t.Setenv("MIABOT_LEDGER_DEFAULT_TAX_RATE", "1.5")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Ledger.InvoicePrefix = ""
	assert.Error(t, cfg.Validate())
}

func TestPostgresDSN(t *testing.T) {
	c := PostgresConfig{User: "u", Password: "p", DBName: "db", Host: "h", Port: 5432, SSLMode: "disable"}
	assert.Equal(t, "user=u password=p dbname=db host=h port=5432 sslmode=disable", c.GetDSN())
}
