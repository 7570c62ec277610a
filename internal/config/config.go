package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Ledger     LedgerConfig     `validate:"required"`
	Cache      CacheConfig
	Events     EventsConfig
	Sentry     SentryConfig
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

type AuthConfig struct {
	Secret string `validate:"required"`
}

// LedgerConfig holds the defaults applied to tenants without settings
// and the retry policy for serialization conflicts.
type LedgerConfig struct {
	DefaultTaxRate       decimal.Decimal `mapstructure:"default_tax_rate"`
	InvoicePrefix        string          `mapstructure:"invoice_prefix" validate:"required"`
	NumberPadding        int             `mapstructure:"number_padding" validate:"min=1,max=12"`
	PaymentTermsDays     int             `mapstructure:"payment_terms_days" validate:"min=0"`
	DueSoonDays          int             `mapstructure:"due_soon_days" validate:"min=1"`
	MaxRetries           uint64          `mapstructure:"max_retries"`
	RetryInitialInterval time.Duration   `mapstructure:"retry_initial_interval"`
}

type CacheConfig struct {
	Enabled bool
}

type EventsConfig struct {
	Enabled         bool
	Topic           string
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local runs
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/miabot")

	v.SetEnvPrefix("MIABOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config, viper.DecodeHook(decimalHook())); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("ledger.default_tax_rate", "0.19")
	v.SetDefault("ledger.invoice_prefix", "FAC")
	v.SetDefault("ledger.number_padding", 5)
	v.SetDefault("ledger.payment_terms_days", 30)
	v.SetDefault("ledger.due_soon_days", 7)
	v.SetDefault("ledger.max_retries", 3)
	v.SetDefault("ledger.retry_initial_interval", "50ms")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.topic", "ledger_events")
	v.SetDefault("events.max_retries", 3)
	v.SetDefault("events.initial_interval", "1s")
	v.SetDefault("events.max_interval", "10s")
	v.SetDefault("events.multiplier", 2.0)
	v.SetDefault("events.max_elapsed_time", "1m")
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Ledger.DefaultTaxRate.IsNegative() || c.Ledger.DefaultTaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("ledger.default_tax_rate must be in [0, 1), got %s", c.Ledger.DefaultTaxRate)
	}
	return nil
}

// GetDefaultConfig returns a configuration for tests and scripts
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Auth:       AuthConfig{Secret: "local-dev-secret"},
		Ledger: LedgerConfig{
			DefaultTaxRate:       decimal.NewFromFloat(0.19),
			InvoicePrefix:        "FAC",
			NumberPadding:        5,
			PaymentTermsDays:     30,
			DueSoonDays:          7,
			MaxRetries:           3,
			RetryInitialInterval: 10 * time.Millisecond,
		},
		Cache:  CacheConfig{Enabled: true},
		Events: EventsConfig{Enabled: true, Topic: "ledger_events"},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
