package postgres

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/domain/product"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

const productColumns = `id, sku, name, cost_price, sale_price, stock, min_stock, is_active,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const movementColumns = `id, tenant_id, product_id, invoice_id, delta, previous_stock, new_stock,
	reason, note, created_at, created_by`

type productRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewProductRepository creates a new instance of product repository
func NewProductRepository(db *postgres.DB, logger *logger.Logger) product.Repository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	query := `INSERT INTO products (` + productColumns + `) VALUES (
		:id, :sku, :name, :cost_price, :sale_price, :stock, :min_stock, :is_active,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p); err != nil {
		return postgres.ClassifyError(err, "create product")
	}
	return nil
}

func (r *productRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	q := r.db.GetQuerier(ctx)
	w := newTenantWhere(types.GetTenantID(ctx))
	w.add("id = ?", id)

	var p product.Product
	if err := q.GetContext(ctx, &p, q.Rebind(`SELECT `+productColumns+` FROM products`+w.String()), w.args...); err != nil {
		return nil, classifyGet(err, "product", id)
	}
	return &p, nil
}

// Update writes catalog fields. Stock only changes through UpdateStock.
func (r *productRepository) Update(ctx context.Context, p *product.Product) error {
	p.UpdatedAt = time.Now().UTC()
	p.UpdatedBy = types.GetUserID(ctx)

	query := `UPDATE products SET
			sku = :sku,
			name = :name,
			cost_price = :cost_price,
			sale_price = :sale_price,
			min_stock = :min_stock,
			is_active = :is_active,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = 'published'`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		return postgres.ClassifyError(err, "update product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewErrorf("product %s not found", p.ID).
			WithHintf("product %s not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *productRepository) applyFilter(ctx context.Context, filter *types.ProductFilter) *whereClause {
	w := newTenantWhere(types.GetTenantID(ctx))
	if filter == nil {
		return w
	}
	w.addIn("id", filter.ProductIDs)
	if filter.ActiveOnly {
		w.add("is_active = TRUE")
	}
	if filter.LowStockOnly {
		w.add("stock <= min_stock")
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		w.add("(name ILIKE ? OR sku ILIKE ?)", pattern, pattern)
	}
	return w
}

func (r *productRepository) List(ctx context.Context, filter *types.ProductFilter) ([]*product.Product, error) {
	q := r.db.GetQuerier(ctx)
	w := r.applyFilter(ctx, filter)

	order := ` ORDER BY name, id`
	if filter != nil && filter.LowStockOnly {
		// largest deficit first
		order = ` ORDER BY (min_stock - stock) DESC, name, id`
	}

	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	query, args := paginate(`SELECT `+productColumns+` FROM products`+w.String()+order, w.args, qf)

	var products []*product.Product
	if err := q.SelectContext(ctx, &products, q.Rebind(query), args...); err != nil {
		return nil, postgres.ClassifyError(err, "list products")
	}
	return products, nil
}

func (r *productRepository) Count(ctx context.Context, filter *types.ProductFilter) (int, error) {
	q := r.db.GetQuerier(ctx)
	w := r.applyFilter(ctx, filter)

	var count int
	if err := q.GetContext(ctx, &count, q.Rebind(`SELECT COUNT(*) FROM products`+w.String()), w.args...); err != nil {
		return 0, postgres.ClassifyError(err, "count products")
	}
	return count, nil
}

// GetManyForUpdate locks rows in id order so concurrent sends touching
// overlapping products cannot deadlock each other.
func (r *productRepository) GetManyForUpdate(ctx context.Context, ids []string) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if !r.db.InTx(ctx) {
		return nil, ierr.NewError("row lock requested outside a transaction").
			Mark(ierr.ErrSystem)
	}

	ids = lo.Uniq(ids)
	q := r.db.GetQuerier(ctx)
	query := `SELECT ` + productColumns + ` FROM products
		WHERE tenant_id = $1 AND status = $2 AND id = ANY($3)
		ORDER BY id
		FOR UPDATE`

	var products []*product.Product
	if err := q.SelectContext(ctx, &products, query, types.GetTenantID(ctx), types.StatusPublished, pq.Array(ids)); err != nil {
		return nil, postgres.ClassifyError(err, "lock products")
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

func (r *productRepository) UpdateStock(ctx context.Context, id string, stock int64) error {
	query := `UPDATE products SET stock = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		stock, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return postgres.ClassifyError(err, "update product stock")
	}
	return nil
}

func (r *productRepository) CreateMovement(ctx context.Context, m *product.StockMovement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `) VALUES (
		:id, :tenant_id, :product_id, :invoice_id, :delta, :previous_stock, :new_stock,
		:reason, :note, :created_at, :created_by)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, m); err != nil {
		return postgres.ClassifyError(err, "create stock movement")
	}
	return nil
}

func (r *productRepository) ListMovements(ctx context.Context, productID string, filter *types.QueryFilter) ([]*product.StockMovement, error) {
	q := r.db.GetQuerier(ctx)
	query, args := paginate(`SELECT `+movementColumns+` FROM stock_movements
		WHERE tenant_id = ? AND product_id = ?
		ORDER BY created_at DESC, id DESC`,
		[]interface{}{types.GetTenantID(ctx), productID}, filter)

	var movements []*product.StockMovement
	if err := q.SelectContext(ctx, &movements, q.Rebind(query), args...); err != nil {
		return nil, postgres.ClassifyError(err, "list stock movements")
	}
	return movements, nil
}
