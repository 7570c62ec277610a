package api

import (
	v1 "github.com/RiveraMg/MiaBot/internal/api/v1"
	"github.com/RiveraMg/MiaBot/internal/auth"
	"github.com/RiveraMg/MiaBot/internal/config"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/rest/middleware"
	"github.com/RiveraMg/MiaBot/internal/telemetry"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health    *v1.HealthHandler
	Invoice   *v1.InvoiceHandler
	Payment   *v1.PaymentHandler
	Product   *v1.ProductHandler
	Client    *v1.ClientHandler
	Settings  *v1.SettingsHandler
	Dashboard *v1.DashboardHandler
}

// RouterParams groups what the router needs besides the handlers
type RouterParams struct {
	Config      *config.Configuration
	Logger      *logger.Logger
	Auth        auth.Provider
	Metrics     *telemetry.LedgerMetrics
	RateLimiter *middleware.TenantRateLimiter
}

func NewRouter(handlers Handlers, params RouterParams) *gin.Engine {
	if params.Config.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(params.Config),
		middleware.MetricsMiddleware(params.Metrics),
		middleware.ErrorHandler(),
	)

	// ops
	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1Private := router.Group("/v1")
	v1Private.Use(
		middleware.AuthenticateMiddleware(params.Auth, params.Logger),
		middleware.RateLimitMiddleware(params.Config, params.RateLimiter),
	)
	registerV1Routes(v1Private, handlers, params)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers, params RouterParams) {
	finance := middleware.RequireFinanceAccess(params.Logger)

	invoices := router.Group("/invoices", finance)
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/overdue", handlers.Invoice.ListOverdueInvoices)
		invoices.GET("/due-soon", handlers.Invoice.ListDueSoonInvoices)
		invoices.GET("/pending", handlers.Invoice.ListPendingInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id", handlers.Invoice.UpdateInvoice)
		invoices.PUT("/:id/status", handlers.Invoice.UpdateInvoiceStatus)
		invoices.DELETE("/:id", handlers.Invoice.CancelInvoice)
		invoices.POST("/:id/payments", handlers.Payment.RecordPayment)
		invoices.GET("/:id/payments", handlers.Payment.ListPayments)
	}

	products := router.Group("/products")
	{
		products.POST("", handlers.Product.CreateProduct)
		products.GET("", handlers.Product.ListProducts)
		products.GET("/low-stock", handlers.Product.ListLowStock)
		products.GET("/:id", handlers.Product.GetProduct)
		products.PUT("/:id", handlers.Product.UpdateProduct)
		products.DELETE("/:id", handlers.Product.DeleteProduct)
		products.PATCH("/:id/stock", handlers.Product.AdjustStock)
		products.GET("/:id/movements", handlers.Product.ListStockMovements)
	}

	clients := router.Group("/clients")
	{
		clients.POST("", handlers.Client.CreateClient)
		clients.GET("", handlers.Client.ListClients)
		clients.GET("/:id", handlers.Client.GetClient)
		clients.PUT("/:id", finance, handlers.Client.UpdateClient)
		clients.DELETE("/:id", finance, handlers.Client.DeleteClient)
		clients.GET("/:id/invoices", finance, handlers.Client.ListClientInvoices)
	}

	settings := router.Group("/settings", finance)
	{
		settings.GET("", handlers.Settings.GetSettings)
		settings.PUT("", handlers.Settings.UpdateSettings)
	}

	dashboard := router.Group("/dashboard", finance)
	{
		dashboard.GET("/finance", handlers.Dashboard.GetFinanceSummary)
	}
}
