package postgres

import (
	"context"
	"time"

	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

const invoiceColumns = `id, number, client_id, invoice_status, issue_date, due_date, paid_date,
	subtotal, tax, total, tax_rate, notes, stock_applied, version,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const lineItemColumns = `id, invoice_id, product_id, description, quantity, unit_price, line_total,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of invoice repository
func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"tenant_id", inv.TenantID,
	)

	q := r.db.GetQuerier(ctx)
	query := `INSERT INTO invoices (` + invoiceColumns + `) VALUES (
		:id, :number, :client_id, :invoice_status, :issue_date, :due_date, :paid_date,
		:subtotal, :tax, :total, :tax_rate, :notes, :stock_applied, :version,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := q.NamedExecContext(ctx, query, inv); err != nil {
		return postgres.ClassifyError(err, "create invoice")
	}
	return r.insertLineItems(ctx, q, inv)
}

func (r *invoiceRepository) insertLineItems(ctx context.Context, q postgres.Querier, inv *invoice.Invoice) error {
	query := `INSERT INTO invoice_line_items (` + lineItemColumns + `) VALUES (
		:id, :invoice_id, :product_id, :description, :quantity, :unit_price, :line_total,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	for _, li := range inv.LineItems {
		li.InvoiceID = inv.ID
		if _, err := q.NamedExecContext(ctx, query, li); err != nil {
			return postgres.ClassifyError(err, "create invoice line item")
		}
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return r.get(ctx, id, false)
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	if !r.db.InTx(ctx) {
		return nil, ierr.NewError("row lock requested outside a transaction").
			Mark(ierr.ErrSystem)
	}
	return r.get(ctx, id, true)
}

func (r *invoiceRepository) get(ctx context.Context, id string, lock bool) (*invoice.Invoice, error) {
	q := r.db.GetQuerier(ctx)
	w := newTenantWhere(types.GetTenantID(ctx))
	w.add("id = ?", id)

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + w.String()
	if lock {
		query += " FOR UPDATE"
	}

	var inv invoice.Invoice
	if err := q.GetContext(ctx, &inv, q.Rebind(query), w.args...); err != nil {
		return nil, classifyGet(err, "invoice", id)
	}

	items, err := r.lineItems(ctx, q, []string{inv.ID})
	if err != nil {
		return nil, err
	}
	inv.LineItems = items[inv.ID]
	return &inv, nil
}

func (r *invoiceRepository) lineItems(ctx context.Context, q postgres.Querier, invoiceIDs []string) (map[string][]*invoice.LineItem, error) {
	w := newTenantWhere(types.GetTenantID(ctx))
	w.addIn("invoice_id", invoiceIDs)

	var items []*invoice.LineItem
	query := `SELECT ` + lineItemColumns + ` FROM invoice_line_items` + w.String() + ` ORDER BY created_at, id`
	if err := q.SelectContext(ctx, &items, q.Rebind(query), w.args...); err != nil {
		return nil, postgres.ClassifyError(err, "list invoice line items")
	}
	return lo.GroupBy(items, func(li *invoice.LineItem) string { return li.InvoiceID }), nil
}

// Update bumps the version; a stale version means another writer got there first
func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	r.logger.Debugw("updating invoice",
		"invoice_id", inv.ID,
		"invoice_status", inv.InvoiceStatus,
		"version", inv.Version,
	)

	q := r.db.GetQuerier(ctx)
	query := `UPDATE invoices SET
			client_id = :client_id,
			invoice_status = :invoice_status,
			issue_date = :issue_date,
			due_date = :due_date,
			paid_date = :paid_date,
			subtotal = :subtotal,
			tax = :tax,
			total = :total,
			tax_rate = :tax_rate,
			notes = :notes,
			stock_applied = :stock_applied,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND version = :version AND status = 'published'`

	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = types.GetUserID(ctx)

	res, err := q.NamedExecContext(ctx, query, inv)
	if err != nil {
		return postgres.ClassifyError(err, "update invoice")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.ClassifyError(err, "update invoice")
	}
	if n == 0 {
		return ierr.NewError("invoice was modified concurrently").
			WithHint("The invoice changed while you were editing it, please retry").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"version":    inv.Version,
			}).
			Mark(ierr.ErrConcurrencyConflict)
	}
	inv.Version++
	return nil
}

func (r *invoiceRepository) ReplaceLineItems(ctx context.Context, inv *invoice.Invoice) error {
	q := r.db.GetQuerier(ctx)
	if _, err := q.ExecContext(ctx,
		`DELETE FROM invoice_line_items WHERE tenant_id = $1 AND invoice_id = $2`,
		types.GetTenantID(ctx), inv.ID,
	); err != nil {
		return postgres.ClassifyError(err, "delete invoice line items")
	}
	return r.insertLineItems(ctx, q, inv)
}

func (r *invoiceRepository) applyFilter(ctx context.Context, filter *types.InvoiceFilter) *whereClause {
	w := newTenantWhere(types.GetTenantID(ctx))
	if filter == nil {
		return w
	}
	w.addIn("id", filter.InvoiceIDs)
	if len(filter.InvoiceStatus) > 0 {
		w.add("invoice_status = ANY(?)", pq.Array(lo.Map(filter.InvoiceStatus, func(s types.InvoiceStatus, _ int) string {
			return string(s)
		})))
	}
	if filter.ClientID != "" {
		w.add("client_id = ?", filter.ClientID)
	}
	if filter.IssueDateStart != nil {
		w.add("issue_date >= ?", *filter.IssueDateStart)
	}
	if filter.IssueDateEnd != nil {
		w.add("issue_date <= ?", *filter.IssueDateEnd)
	}
	if filter.DueDateStart != nil {
		w.add("due_date >= ?", *filter.DueDateStart)
	}
	if filter.DueDateEnd != nil {
		w.add("due_date <= ?", *filter.DueDateEnd)
	}
	if filter.DueBefore != nil {
		w.add("due_date < ?", *filter.DueBefore)
	}
	return w
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	q := r.db.GetQuerier(ctx)
	w := r.applyFilter(ctx, filter)

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + w.String() + ` ORDER BY issue_date DESC, number DESC`
	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	query, args := paginate(query, w.args, qf)

	var invoices []*invoice.Invoice
	if err := q.SelectContext(ctx, &invoices, q.Rebind(query), args...); err != nil {
		return nil, postgres.ClassifyError(err, "list invoices")
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	q := r.db.GetQuerier(ctx)
	w := r.applyFilter(ctx, filter)

	var count int
	if err := q.GetContext(ctx, &count, q.Rebind(`SELECT COUNT(*) FROM invoices`+w.String()), w.args...); err != nil {
		return 0, postgres.ClassifyError(err, "count invoices")
	}
	return count, nil
}

// GetNextInvoiceNumber increments the tenant counter in a single statement.
// The row lock it takes is held by the caller's transaction, so a rolled back
// creation releases its number for the next writer.
func (r *invoiceRepository) GetNextInvoiceNumber(ctx context.Context) (int64, error) {
	tenantID := types.GetTenantID(ctx)
	q := r.db.GetQuerier(ctx)

	query := `
		INSERT INTO invoice_sequences (tenant_id, last_value, created_at, updated_at)
		VALUES ($1, 1, NOW(), NOW())
		ON CONFLICT (tenant_id) DO UPDATE
		SET last_value = invoice_sequences.last_value + 1,
			updated_at = NOW()
		RETURNING last_value`

	var next int64
	if err := q.GetContext(ctx, &next, query, tenantID); err != nil {
		return 0, postgres.ClassifyError(err, "next invoice number")
	}

	r.logger.Debugw("allocated invoice sequence value",
		"tenant_id", tenantID,
		"value", next,
	)
	return next, nil
}
