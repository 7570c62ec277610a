package postgres

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/domain/client"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/types"
)

const clientColumns = `id, name, tax_id, email, phone, address, is_active,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

type clientRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewClientRepository creates a new instance of client repository
func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return &clientRepository{
		db:     db,
		logger: logger,
	}
}

func (r *clientRepository) Create(ctx context.Context, c *client.Client) error {
	query := `INSERT INTO clients (` + clientColumns + `) VALUES (
		:id, :name, :tax_id, :email, :phone, :address, :is_active,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, c); err != nil {
		return postgres.ClassifyError(err, "create client")
	}
	return nil
}

func (r *clientRepository) Get(ctx context.Context, id string) (*client.Client, error) {
	q := r.db.GetQuerier(ctx)
	w := newTenantWhere(types.GetTenantID(ctx))
	w.add("id = ?", id)

	var c client.Client
	if err := q.GetContext(ctx, &c, q.Rebind(`SELECT `+clientColumns+` FROM clients`+w.String()), w.args...); err != nil {
		return nil, classifyGet(err, "client", id)
	}
	return &c, nil
}

func (r *clientRepository) applyFilter(ctx context.Context, filter *types.ClientFilter) *whereClause {
	w := newTenantWhere(types.GetTenantID(ctx))
	if filter == nil {
		return w
	}
	w.addIn("id", filter.ClientIDs)
	if filter.ActiveOnly {
		w.add("is_active = TRUE")
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		w.add("(name ILIKE ? OR tax_id ILIKE ? OR email ILIKE ?)", pattern, pattern, pattern)
	}
	return w
}

func (r *clientRepository) List(ctx context.Context, filter *types.ClientFilter) ([]*client.Client, error) {
	q := r.db.GetQuerier(ctx)
	w := r.applyFilter(ctx, filter)

	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	query, args := paginate(`SELECT `+clientColumns+` FROM clients`+w.String()+` ORDER BY name, id`, w.args, qf)

	var clients []*client.Client
	if err := q.SelectContext(ctx, &clients, q.Rebind(query), args...); err != nil {
		return nil, postgres.ClassifyError(err, "list clients")
	}
	return clients, nil
}

func (r *clientRepository) Count(ctx context.Context, filter *types.ClientFilter) (int, error) {
	q := r.db.GetQuerier(ctx)
	w := r.applyFilter(ctx, filter)

	var count int
	if err := q.GetContext(ctx, &count, q.Rebind(`SELECT COUNT(*) FROM clients`+w.String()), w.args...); err != nil {
		return 0, postgres.ClassifyError(err, "count clients")
	}
	return count, nil
}

func (r *clientRepository) Update(ctx context.Context, c *client.Client) error {
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)

	query := `UPDATE clients SET
			name = :name,
			tax_id = :tax_id,
			email = :email,
			phone = :phone,
			address = :address,
			is_active = :is_active,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = 'published'`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, c)
	if err != nil {
		return postgres.ClassifyError(err, "update client")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewErrorf("client %s not found", c.ID).
			WithHintf("client %s not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debugw("archiving client", "client_id", id)

	query := `UPDATE clients SET status = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.StatusDeleted, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return postgres.ClassifyError(err, "delete client")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewErrorf("client %s not found", id).
			WithHintf("client %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
