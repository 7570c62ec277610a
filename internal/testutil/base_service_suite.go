package testutil

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/cache"
	"github.com/RiveraMg/MiaBot/internal/config"
	"github.com/RiveraMg/MiaBot/internal/domain/client"
	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	"github.com/RiveraMg/MiaBot/internal/domain/payment"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	"github.com/RiveraMg/MiaBot/internal/domain/settings"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/sentry"
	"github.com/RiveraMg/MiaBot/internal/telemetry"
	"github.com/RiveraMg/MiaBot/internal/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	InvoiceRepo  invoice.Repository
	PaymentRepo  payment.Repository
	ProductRepo  product.Repository
	ClientRepo   client.Repository
	SettingsRepo settings.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *InMemoryEventPublisher
	db        *MockPostgresClient
	cache     cache.Cache
	metrics   *telemetry.LedgerMetrics
	sentry    *sentry.Service
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	s.config.Sentry.Enabled = false
	s.logger = logger.NewNoopLogger()
	s.sentry = sentry.NewSentryService(s.config, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	invoices := NewInMemoryInvoiceStore()
	payments := NewInMemoryPaymentStore()
	products := NewInMemoryProductStore()
	clients := NewInMemoryClientStore()
	tenantSettings := NewInMemorySettingsStore()

	s.stores = Stores{
		InvoiceRepo:  invoices,
		PaymentRepo:  payments,
		ProductRepo:  products,
		ClientRepo:   clients,
		SettingsRepo: tenantSettings,
	}

	s.db = NewMockPostgresClient(s.logger, invoices, payments, products, clients, tenantSettings)
	s.publisher = NewInMemoryEventPublisher()
	// a fresh cache and registry per test keep counters and cached summaries isolated
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.metrics = telemetry.NewLedgerMetrics(prometheus.NewRegistry())
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.stores.ProductRepo.(*InMemoryProductStore).Clear()
	s.stores.ClientRepo.(*InMemoryClientStore).Clear()
	s.stores.SettingsRepo.(*InMemorySettingsStore).Clear()
	s.publisher.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns the in-memory repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPublisher returns the recording event publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryEventPublisher {
	return s.publisher
}

// GetDB returns the mock transaction client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetMetrics() *telemetry.LedgerMetrics {
	return s.metrics
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the time captured when the test started
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
