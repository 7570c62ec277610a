package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RiveraMg/MiaBot/internal/api"
	v1 "github.com/RiveraMg/MiaBot/internal/api/v1"
	"github.com/RiveraMg/MiaBot/internal/auth"
	"github.com/RiveraMg/MiaBot/internal/cache"
	"github.com/RiveraMg/MiaBot/internal/config"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/publisher"
	"github.com/RiveraMg/MiaBot/internal/pubsub"
	"github.com/RiveraMg/MiaBot/internal/pubsub/memory"
	pubsubRouter "github.com/RiveraMg/MiaBot/internal/pubsub/router"
	"github.com/RiveraMg/MiaBot/internal/repository"
	"github.com/RiveraMg/MiaBot/internal/rest/middleware"
	"github.com/RiveraMg/MiaBot/internal/sentry"
	"github.com/RiveraMg/MiaBot/internal/service"
	"github.com/RiveraMg/MiaBot/internal/telemetry"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/RiveraMg/MiaBot/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title MiaBot Ledger API
// @version 1.0
// @description Invoices, payments and stock for small businesses
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the token as *Bearer &lt;token&gt;*

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			telemetry.NewDefaultLedgerMetrics,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			provideDBClient,

			// Events
			memory.NewPubSub,
			publisher.NewEventPublisher,
			pubsubRouter.NewRouter,

			// Auth
			auth.NewProvider,
			middleware.NewTenantRateLimiter,

			// Repositories
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,
			repository.NewProductRepository,
			repository.NewClientRepository,
			repository.NewSettingsRepository,
		),
	)

	opts = append(opts, sentry.Module())

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewProductService,
			service.NewStockService,
			service.NewClientService,
			service.NewSettingsService,
			service.NewDashboardService,
			service.NewLedgerEventHandler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideDBClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideHandlers(
	logger *logger.Logger,
	db *postgres.DB,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
	productService service.ProductService,
	stockService service.StockService,
	clientService service.ClientService,
	settingsService service.SettingsService,
	dashboardService service.DashboardService,
) api.Handlers {
	return api.Handlers{
		Health:    v1.NewHealthHandler(db, logger),
		Invoice:   v1.NewInvoiceHandler(invoiceService, logger),
		Payment:   v1.NewPaymentHandler(paymentService, logger),
		Product:   v1.NewProductHandler(productService, stockService, logger),
		Client:    v1.NewClientHandler(clientService, logger),
		Settings:  v1.NewSettingsHandler(settingsService, logger),
		Dashboard: v1.NewDashboardHandler(dashboardService, logger),
	}
}

func provideRouter(
	handlers api.Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	authProvider auth.Provider,
	metrics *telemetry.LedgerMetrics,
	limiter *middleware.TenantRateLimiter,
) *gin.Engine {
	return api.NewRouter(handlers, api.RouterParams{
		Config:      cfg,
		Logger:      logger,
		Auth:        authProvider,
		Metrics:     metrics,
		RateLimiter: limiter,
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	ps pubsub.PubSub,
	eventHandler *service.LedgerEventHandler,
	eventPublisher publisher.EventPublisher,
	db *postgres.DB,
	log *logger.Logger,
) {
	// hooks stop in reverse order, so the pool and the channel close last
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := eventPublisher.Close(); err != nil {
				log.Errorw("failed to close event publisher", "error", err)
			}
			db.Close()
			return nil
		},
	})

	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, ps, eventHandler, cfg, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server")
			return srv.Shutdown(ctx)
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	ps pubsub.PubSub,
	eventHandler *service.LedgerEventHandler,
	cfg *config.Configuration,
	logger *logger.Logger,
) {
	if !cfg.Events.Enabled {
		logger.Info("ledger events are disabled, not starting the message router")
		return
	}

	// Register handlers before starting the router
	router.AddNoPublishHandler(
		"dashboard_cache_invalidation",
		cfg.Events.Topic,
		ps,
		eventHandler.Handle,
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			return router.Close()
		},
	})
}
