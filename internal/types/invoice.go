package types

import (
	"time"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus is the business lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

var invoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

// InvoiceTransitions is the legal edge table of the invoice state machine.
// OVERDUE has no entry: it is derived on read and never stored.
var InvoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft: {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:  {InvoiceStatusPaid, InvoiceStatusCancelled},
}

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	if !lo.Contains(invoiceStatuses, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": invoiceStatuses,
				"value":   s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether no further transitions are possible
func (s InvoiceStatus) IsTerminal() bool {
	return len(InvoiceTransitions[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s
func (s InvoiceStatus) AllowedTransitions() []InvoiceStatus {
	return InvoiceTransitions[s]
}

// CanTransitionTo reports whether s -> target is a legal edge
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	return lo.Contains(InvoiceTransitions[s], target)
}

// ValidateInvoiceTransition returns an invalid transition error naming both ends of the edge
func ValidateInvoiceTransition(current, target InvoiceStatus) error {
	if current.CanTransitionTo(target) {
		return nil
	}
	return ierr.NewErrorf("invalid invoice status transition from %s to %s", current, target).
		WithHintf("Cannot move invoice from %s to %s", current, target).
		WithReportableDetails(map[string]any{
			"current":   current,
			"requested": target,
			"allowed":   lo.Ternary(current.AllowedTransitions() == nil, []InvoiceStatus{}, current.AllowedTransitions()),
		}).
		Mark(ierr.ErrInvalidTransition)
}

// IsOverdue is the read-time overdue classification
func IsOverdue(status InvoiceStatus, dueDate time.Time, now time.Time) bool {
	return status == InvoiceStatusSent && dueDate.Before(now)
}

// DisplayStatus returns OVERDUE for sent invoices past due, the stored status otherwise
func DisplayStatus(status InvoiceStatus, dueDate time.Time, now time.Time) InvoiceStatus {
	if IsOverdue(status, dueDate, now) {
		return InvoiceStatusOverdue
	}
	return status
}

// InvoiceFilter filters invoice listings
type InvoiceFilter struct {
	*QueryFilter

	InvoiceIDs     []string        `json:"invoice_ids,omitempty" form:"invoice_ids"`
	InvoiceStatus  []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`
	ClientID       string          `json:"client_id,omitempty" form:"client_id"`
	IssueDateStart *time.Time      `json:"issue_date_start,omitempty" form:"issue_date_start" time_format:"2006-01-02"`
	IssueDateEnd   *time.Time      `json:"issue_date_end,omitempty" form:"issue_date_end" time_format:"2006-01-02"`
	DueDateStart   *time.Time      `json:"due_date_start,omitempty" form:"due_date_start" time_format:"2006-01-02"`
	DueDateEnd     *time.Time      `json:"due_date_end,omitempty" form:"due_date_end" time_format:"2006-01-02"`
	OverdueOnly    bool            `json:"overdue_only,omitempty" form:"overdue_only"`
	// DueBefore is exclusive, used by the overdue listing
	DueBefore *time.Time `json:"-" form:"-"`
}

func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{QueryFilter: NewDefaultQueryFilter()}
}

func NewNoLimitInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{QueryFilter: NewNoLimitQueryFilter()}
}

func (f *InvoiceFilter) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	for _, s := range f.InvoiceStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if f.IssueDateStart != nil && f.IssueDateEnd != nil && f.IssueDateEnd.Before(*f.IssueDateStart) {
		return ierr.NewError("issue_date_end before issue_date_start").
			WithHint("Issue date range is inverted").
			Mark(ierr.ErrValidation)
	}
	if f.DueDateStart != nil && f.DueDateEnd != nil && f.DueDateEnd.Before(*f.DueDateStart) {
		return ierr.NewError("due_date_end before due_date_start").
			WithHint("Due date range is inverted").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ResolveOverdue rewrites an OVERDUE status filter into its stored equivalent,
// SENT with a due date before now. Other requested statuses are kept.
func (f *InvoiceFilter) ResolveOverdue(now time.Time) {
	if f.OverdueOnly {
		f.InvoiceStatus = []InvoiceStatus{InvoiceStatusOverdue}
	}
	if !lo.Contains(f.InvoiceStatus, InvoiceStatusOverdue) {
		return
	}
	rest := lo.Without(f.InvoiceStatus, InvoiceStatusOverdue)
	if len(rest) > 0 {
		// mixing OVERDUE with other statuses cannot be expressed as one predicate,
		// keep SENT and let the caller see both classifications
		f.InvoiceStatus = lo.Uniq(append(rest, InvoiceStatusSent))
		return
	}
	f.InvoiceStatus = []InvoiceStatus{InvoiceStatusSent}
	f.DueBefore = lo.ToPtr(now)
}
