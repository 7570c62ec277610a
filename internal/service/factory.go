package service

import (
	"github.com/RiveraMg/MiaBot/internal/cache"
	"github.com/RiveraMg/MiaBot/internal/config"
	"github.com/RiveraMg/MiaBot/internal/domain/client"
	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	"github.com/RiveraMg/MiaBot/internal/domain/payment"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	"github.com/RiveraMg/MiaBot/internal/domain/settings"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/publisher"
	"github.com/RiveraMg/MiaBot/internal/sentry"
	"github.com/RiveraMg/MiaBot/internal/telemetry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	DB      postgres.IClient
	Cache   cache.Cache
	Metrics *telemetry.LedgerMetrics
	Sentry  *sentry.Service

	// Repositories
	InvoiceRepo  invoice.Repository
	PaymentRepo  payment.Repository
	ProductRepo  product.Repository
	ClientRepo   client.Repository
	SettingsRepo settings.Repository

	// Publishers
	EventPublisher publisher.EventPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	metrics *telemetry.LedgerMetrics,
	sentry *sentry.Service,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
	productRepo product.Repository,
	clientRepo client.Repository,
	settingsRepo settings.Repository,
	eventPublisher publisher.EventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:         logger,
		Config:         config,
		DB:             db,
		Cache:          cache,
		Metrics:        metrics,
		Sentry:         sentry,
		InvoiceRepo:    invoiceRepo,
		PaymentRepo:    paymentRepo,
		ProductRepo:    productRepo,
		ClientRepo:     clientRepo,
		SettingsRepo:   settingsRepo,
		EventPublisher: eventPublisher,
	}
}
