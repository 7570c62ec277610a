package postgres

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/domain/payment"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/lib/pq"
)

const paymentColumns = `id, invoice_id, amount, method, reference, notes, idempotency_key, recorded_at,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a new instance of payment repository
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	r.logger.Debugw("recording payment",
		"payment_id", p.ID,
		"invoice_id", p.InvoiceID,
		"amount", p.Amount,
	)

	query := `INSERT INTO payments (` + paymentColumns + `) VALUES (
		:id, :invoice_id, :amount, :method, :reference, :notes, :idempotency_key, :recorded_at,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p); err != nil {
		return postgres.ClassifyError(err, "create payment")
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	q := r.db.GetQuerier(ctx)
	w := newTenantWhere(types.GetTenantID(ctx))
	w.add("id = ?", id)

	var p payment.Payment
	if err := q.GetContext(ctx, &p, q.Rebind(`SELECT `+paymentColumns+` FROM payments`+w.String()), w.args...); err != nil {
		return nil, classifyGet(err, "payment", id)
	}
	return &p, nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	q := r.db.GetQuerier(ctx)
	w := newTenantWhere(types.GetTenantID(ctx))
	w.add("idempotency_key = ?", key)

	var p payment.Payment
	if err := q.GetContext(ctx, &p, q.Rebind(`SELECT `+paymentColumns+` FROM payments`+w.String()), w.args...); err != nil {
		return nil, classifyGet(err, "payment with idempotency key", key)
	}
	return &p, nil
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	q := r.db.GetQuerier(ctx)
	w := newTenantWhere(types.GetTenantID(ctx))

	var qf *types.QueryFilter
	if filter != nil {
		w.addIn("invoice_id", filter.InvoiceIDs)
		if filter.IdempotencyKey != "" {
			w.add("idempotency_key = ?", filter.IdempotencyKey)
		}
		qf = filter.QueryFilter
	}

	query, args := paginate(`SELECT `+paymentColumns+` FROM payments`+w.String()+` ORDER BY recorded_at, id`, w.args, qf)

	var payments []*payment.Payment
	if err := q.SelectContext(ctx, &payments, q.Rebind(query), args...); err != nil {
		return nil, postgres.ClassifyError(err, "list payments")
	}
	return payments, nil
}

func (r *paymentRepository) SumByInvoices(ctx context.Context, invoiceIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}

	q := r.db.GetQuerier(ctx)
	query := `
		SELECT invoice_id, COALESCE(SUM(amount), 0) AS paid
		FROM payments
		WHERE tenant_id = $1 AND status = $2 AND invoice_id = ANY($3)
		GROUP BY invoice_id`

	var rows []struct {
		InvoiceID string `db:"invoice_id"`
		Paid      int64  `db:"paid"`
	}
	if err := q.SelectContext(ctx, &rows, query, types.GetTenantID(ctx), types.StatusPublished, pq.Array(invoiceIDs)); err != nil {
		return nil, postgres.ClassifyError(err, "sum payments")
	}
	for _, row := range rows {
		out[row.InvoiceID] = row.Paid
	}
	return out, nil
}
