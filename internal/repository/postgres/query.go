package postgres

import (
	"database/sql"
	"errors"
	"strings"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/lib/pq"
)

// whereClause accumulates `?` bound predicates, rebound to $n by the querier
type whereClause struct {
	conds []string
	args  []interface{}
}

func newTenantWhere(tenantID string) *whereClause {
	w := &whereClause{}
	w.add("tenant_id = ?", tenantID)
	w.add("status = ?", types.StatusPublished)
	return w
}

func (w *whereClause) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) addIn(column string, values []string) {
	if len(values) == 0 {
		return
	}
	w.add(column+" = ANY(?)", pq.Array(values))
}

func (w *whereClause) String() string {
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// paginate appends LIMIT/OFFSET for bounded filters
func paginate(query string, args []interface{}, f *types.QueryFilter) (string, []interface{}) {
	if f.IsUnlimited() {
		if off := f.GetOffset(); off > 0 {
			return query + " OFFSET ?", append(args, off)
		}
		return query, args
	}
	return query + " LIMIT ? OFFSET ?", append(args, f.GetLimit(), f.GetOffset())
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// classifyGet names the missing entity on a not found lookup
func classifyGet(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s %s not found", entity, id).
			WithReportableDetails(map[string]any{
				"entity": entity,
				"id":     id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return postgres.ClassifyError(err, "get "+entity)
}
