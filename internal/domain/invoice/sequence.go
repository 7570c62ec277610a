package invoice

import (
	"fmt"
	"time"
)

// InvoiceSequence is a tenant's invoice number counter row
type InvoiceSequence struct {
	TenantID  string    `db:"tenant_id"`
	LastValue int64     `db:"last_value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// FormatNumber renders a sequence value as e.g. FAC-00042
func FormatNumber(prefix string, padding int, value int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, padding, value)
}
