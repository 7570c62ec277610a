package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/RiveraMg/MiaBot/internal/domain/product"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// InMemoryProductStore implements product.Repository, movements included
type InMemoryProductStore struct {
	*InMemoryStore[*product.Product]

	mu        sync.RWMutex
	movements []*product.StockMovement
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		InMemoryStore: NewInMemoryStore(func(p *product.Product) *product.Product {
			if p == nil {
				return nil
			}
			c := *p
			return &c
		}),
	}
}

func productFilterFn(filter *types.ProductFilter) FilterFunc[*product.Product] {
	return func(ctx context.Context, p *product.Product) bool {
		if !tenantMatches(ctx, p.BaseModel) {
			return false
		}
		if filter == nil {
			return true
		}
		if len(filter.ProductIDs) > 0 && !lo.Contains(filter.ProductIDs, p.ID) {
			return false
		}
		if filter.ActiveOnly && !p.IsActive {
			return false
		}
		if filter.LowStockOnly && !p.IsLowStock() {
			return false
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
				return false
			}
		}
		return true
	}
}

func productSortFn(lowStock bool) SortFunc[*product.Product] {
	return func(i, j *product.Product) bool {
		if lowStock {
			di, dj := i.MinStock-i.Stock, j.MinStock-j.Stock
			if di != dj {
				return di > dj
			}
		}
		if i.Name != j.Name {
			return i.Name < j.Name
		}
		return i.ID < j.ID
	}
}

func (s *InMemoryProductStore) Create(ctx context.Context, p *product.Product) error {
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryProductStore) Get(ctx context.Context, id string) (*product.Product, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !tenantMatches(ctx, p.BaseModel) {
		return nil, ierr.NewErrorf("product %s not found", id).
			WithHintf("product %s not found", id).
			WithReportableDetails(map[string]any{"entity": "product", "id": id}).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

// Update writes catalog fields and leaves stock untouched
func (s *InMemoryProductStore) Update(ctx context.Context, p *product.Product) error {
	current, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	next := *p
	next.Stock = current.Stock
	next.UpdatedBy = types.GetUserID(ctx)
	return s.InMemoryStore.Update(ctx, p.ID, &next)
}

func (s *InMemoryProductStore) List(ctx context.Context, filter *types.ProductFilter) ([]*product.Product, error) {
	var qf *types.QueryFilter
	lowStock := false
	if filter != nil {
		qf = filter.QueryFilter
		lowStock = filter.LowStockOnly
	}
	return s.InMemoryStore.List(ctx, qf, productFilterFn(filter), productSortFn(lowStock))
}

func (s *InMemoryProductStore) Count(ctx context.Context, filter *types.ProductFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, productFilterFn(filter))
}

func (s *InMemoryProductStore) GetManyForUpdate(ctx context.Context, ids []string) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if !InTx(ctx) {
		return nil, ierr.NewError("row lock requested outside a transaction").
			Mark(ierr.ErrSystem)
	}

	ids = lo.Uniq(ids)
	filter := types.NewNoLimitProductFilter()
	filter.ProductIDs = ids
	products, err := s.InMemoryStore.List(ctx, filter.QueryFilter, productFilterFn(filter), func(i, j *product.Product) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}

	if len(products) != len(ids) {
		found := lo.Map(products, func(p *product.Product, _ int) string { return p.ID })
		missing, _ := lo.Difference(ids, found)
		return nil, ierr.NewError("products not found").
			WithHint("One or more products do not exist").
			WithReportableDetails(map[string]any{"product_ids": missing}).
			Mark(ierr.ErrNotFound)
	}
	return products, nil
}

func (s *InMemoryProductStore) UpdateStock(ctx context.Context, id string, stock int64) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Stock = stock
	p.UpdatedBy = types.GetUserID(ctx)
	return s.InMemoryStore.Update(ctx, id, p)
}

func (s *InMemoryProductStore) CreateMovement(_ context.Context, m *product.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *m
	s.movements = append(s.movements, &c)
	return nil
}

func (s *InMemoryProductStore) ListMovements(ctx context.Context, productID string, filter *types.QueryFilter) ([]*product.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := types.GetTenantID(ctx)
	out := make([]*product.StockMovement, 0)
	for _, m := range s.movements {
		if m.TenantID == tenantID && m.ProductID == productID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, filter), nil
}

// Snapshot covers products and movements
func (s *InMemoryProductStore) Snapshot() func() {
	restoreItems := s.InMemoryStore.Snapshot()

	s.mu.RLock()
	saved := append([]*product.StockMovement(nil), s.movements...)
	s.mu.RUnlock()

	return func() {
		restoreItems()
		s.mu.Lock()
		s.movements = saved
		s.mu.Unlock()
	}
}

func (s *InMemoryProductStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = nil
}
