package service

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/domain/client"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	"github.com/RiveraMg/MiaBot/internal/testutil"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// ledgerTestSuite wires every service over the in-memory stores
type ledgerTestSuite struct {
	testutil.BaseServiceTestSuite

	params    ServiceParams
	invoices  InvoiceService
	payments  PaymentService
	stock     StockService
	products  ProductService
	clients   ClientService
	settings  SettingsService
	dashboard DashboardService
}

func (s *ledgerTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.params = NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetCache(),
		s.GetMetrics(),
		s.GetSentry(),
		stores.InvoiceRepo,
		stores.PaymentRepo,
		stores.ProductRepo,
		stores.ClientRepo,
		stores.SettingsRepo,
		s.GetPublisher(),
	)

	s.invoices = NewInvoiceService(s.params)
	s.payments = NewPaymentService(s.params)
	s.stock = NewStockService(s.params)
	s.products = NewProductService(s.params)
	s.clients = NewClientService(s.params)
	s.settings = NewSettingsService(s.params)
	s.dashboard = NewDashboardService(s.params)
}

func (s *ledgerTestSuite) createClient(ctx context.Context, name string) *client.Client {
	resp, err := s.clients.CreateClient(ctx, dto.CreateClientRequest{Name: name})
	s.Require().NoError(err)
	return resp.Client
}

func (s *ledgerTestSuite) createProduct(ctx context.Context, name string, price, stock, minStock int64) *product.Product {
	resp, err := s.products.CreateProduct(ctx, dto.CreateProductRequest{
		SKU:       "SKU-" + name,
		Name:      name,
		CostPrice: price / 2,
		SalePrice: price,
		Stock:     stock,
		MinStock:  minStock,
	})
	s.Require().NoError(err)
	return resp.Product
}

func productLine(p *product.Product, qty int64) dto.InvoiceLineItemRequest {
	return dto.InvoiceLineItemRequest{ProductID: lo.ToPtr(p.ID), Quantity: qty}
}

func freeLine(desc string, qty, price int64) dto.InvoiceLineItemRequest {
	return dto.InvoiceLineItemRequest{Description: desc, Quantity: qty, UnitPrice: lo.ToPtr(price)}
}

func (s *ledgerTestSuite) createInvoice(ctx context.Context, clientID string, lines ...dto.InvoiceLineItemRequest) *dto.InvoiceResponse {
	resp, err := s.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		ClientID:  clientID,
		LineItems: lines,
	})
	s.Require().NoError(err)
	return resp
}

// sentInvoice creates and sends a single free text invoice of the given subtotal
func (s *ledgerTestSuite) sentInvoice(ctx context.Context, subtotal int64) *dto.InvoiceResponse {
	c := s.createClient(ctx, "Acme")
	inv := s.createInvoice(ctx, c.ID, freeLine("Consulting", 1, subtotal))
	resp, err := s.invoices.TransitionInvoice(ctx, inv.ID, types.InvoiceStatusSent)
	s.Require().NoError(err)
	return resp
}

func (s *ledgerTestSuite) stockOf(ctx context.Context, productID string) int64 {
	p, err := s.GetStores().ProductRepo.Get(ctx, productID)
	s.Require().NoError(err)
	return p.Stock
}
