package service

import (
	"context"
	"sort"
	"time"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// StockService is the only writer of product stock
type StockService interface {
	// ApplyDelta changes one product's stock inside the caller's transaction
	ApplyDelta(ctx context.Context, productID string, delta int64, reason types.StockMovementReason, invoiceID *string) (int64, error)

	// AdjustStock is a manual correction in its own transaction, unrelated to any invoice
	AdjustStock(ctx context.Context, productID string, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error)

	ListLowStock(ctx context.Context) (*dto.ListLowStockResponse, error)
	ListMovements(ctx context.Context, productID string, filter *types.QueryFilter) (*dto.ListStockMovementsResponse, error)
}

type stockService struct {
	ServiceParams
}

func NewStockService(params ServiceParams) StockService {
	return &stockService{ServiceParams: params}
}

func (s *stockService) ApplyDelta(ctx context.Context, productID string, delta int64, reason types.StockMovementReason, invoiceID *string) (int64, error) {
	movements, err := s.applyDeltas(ctx, map[string]int64{productID: delta}, reason, invoiceID, "")
	if err != nil {
		return 0, err
	}
	return movements[0].NewStock, nil
}

// applyDeltas locks every product in id order, checks all of them, then writes.
// Nothing is written when any product would go negative.
func (s *stockService) applyDeltas(ctx context.Context, deltas map[string]int64, reason types.StockMovementReason, invoiceID *string, note string) ([]*product.StockMovement, error) {
	if !s.DB.InTx(ctx) {
		return nil, ierr.NewError("stock change outside a transaction").
			Mark(ierr.ErrSystem)
	}

	ids := lo.Keys(deltas)
	sort.Strings(ids)

	products, err := s.ProductRepo.GetManyForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(products, func(p *product.Product) string { return p.ID })

	for _, id := range ids {
		p := byID[id]
		if p.Stock+deltas[id] < 0 {
			return nil, ierr.NewErrorf("insufficient stock for product %s", id).
				WithHintf("Not enough stock for %s", p.Name).
				WithReportableDetails(map[string]any{
					"product_id": id,
					"available":  p.Stock,
					"requested":  -deltas[id],
				}).
				Mark(ierr.ErrInsufficientStock)
		}
	}

	now := time.Now().UTC()
	movements := make([]*product.StockMovement, 0, len(ids))
	for _, id := range ids {
		p := byID[id]
		m := &product.StockMovement{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STOCK_MOVEMENT),
			TenantID:      types.GetTenantID(ctx),
			ProductID:     id,
			InvoiceID:     invoiceID,
			Delta:         deltas[id],
			PreviousStock: p.Stock,
			NewStock:      p.Stock + deltas[id],
			Reason:        reason,
			Note:          note,
			CreatedAt:     now,
			CreatedBy:     types.GetUserID(ctx),
		}
		if err := s.ProductRepo.UpdateStock(ctx, id, m.NewStock); err != nil {
			return nil, err
		}
		if err := s.ProductRepo.CreateMovement(ctx, m); err != nil {
			return nil, err
		}
		p.Stock = m.NewStock
		movements = append(movements, m)
	}

	s.Logger.Debugw("applied stock deltas",
		"reason", reason,
		"invoice_id", lo.FromPtr(invoiceID),
		"products", len(movements),
	)
	return movements, nil
}

func (s *stockService) AdjustStock(ctx context.Context, productID string, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var movement *product.StockMovement
	err := s.retryOnConflict(ctx, "adjust_stock", func() error {
		return s.DB.WithTx(ctx, func(txCtx context.Context) error {
			movements, err := s.applyDeltas(txCtx, map[string]int64{productID: req.Adjustment}, types.StockReasonManual, nil, req.Reason)
			if err != nil {
				return err
			}
			movement = movements[0]
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	p, err := s.ProductRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.Metrics.StockMovements.WithLabelValues(types.GetTenantID(ctx), string(types.StockReasonManual)).Inc()
	s.publish(ctx, types.EventStockAdjusted, movement.ID, 1, movement)

	return &dto.AdjustStockResponse{
		Product:       dto.NewProductResponse(p),
		PreviousStock: movement.PreviousStock,
		NewStock:      movement.NewStock,
	}, nil
}

func (s *stockService) ListLowStock(ctx context.Context) (*dto.ListLowStockResponse, error) {
	filter := types.NewNoLimitProductFilter()
	filter.ActiveOnly = true
	filter.LowStockOnly = true

	products, err := s.ProductRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(products, func(p *product.Product, _ int) *dto.LowStockProductResponse {
		return &dto.LowStockProductResponse{
			ProductResponse: dto.NewProductResponse(p),
			Deficit:         p.MinStock - p.Stock,
		}
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].Deficit > items[j].Deficit })

	return &dto.ListLowStockResponse{Items: items}, nil
}

func (s *stockService) ListMovements(ctx context.Context, productID string, filter *types.QueryFilter) (*dto.ListStockMovementsResponse, error) {
	if filter == nil {
		filter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ProductRepo.Get(ctx, productID); err != nil {
		return nil, err
	}

	movements, err := s.ProductRepo.ListMovements(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ListStockMovementsResponse{
		Items:      movements,
		Pagination: types.NewPaginationResponse(len(movements), filter.GetLimit(), filter.GetOffset()),
	}, nil
}
