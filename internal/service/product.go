package service

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, id string) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, filter *types.ProductFilter) (*dto.ListProductsResponse, error)
	UpdateProduct(ctx context.Context, id string, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productService struct {
	ServiceParams
}

func NewProductService(params ServiceParams) ProductService {
	return &productService{ServiceParams: params}
}

func (s *productService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToProduct(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.ProductRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("product created", "product_id", p.ID, "sku", p.SKU, "stock", p.Stock)
	return dto.NewProductResponse(p), nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*dto.ProductResponse, error) {
	p, err := s.ProductRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewProductResponse(p), nil
}

func (s *productService) ListProducts(ctx context.Context, filter *types.ProductFilter) (*dto.ListProductsResponse, error) {
	if filter == nil {
		filter = types.NewProductFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	products, err := s.ProductRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.ProductRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListProductsResponse{
		Items:      lo.Map(products, func(p *product.Product, _ int) *dto.ProductResponse { return dto.NewProductResponse(p) }),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.ProductRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.ProductRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return dto.NewProductResponse(p), nil
}

// DeleteProduct deactivates the product. Invoice lines and stock movements
// keep referencing it, so the row stays.
func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.ProductRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	p.IsActive = false
	if err := s.ProductRepo.Update(ctx, p); err != nil {
		return err
	}

	s.Logger.Infow("product deactivated", "product_id", p.ID, "sku", p.SKU)
	return nil
}
