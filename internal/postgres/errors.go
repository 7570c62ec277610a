package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqCheckViolation       = "23514"
	pqAdminShutdown        = "57P01"
	pqCannotConnectNow     = "57P03"
	pqTooManyConnections   = "53300"
)

// Unique constraints whose violation means a concurrent writer won a race.
// Retrying the whole unit of work is safe for these.
var raceConstraints = []string{
	"invoices_tenant_number_key",
	"invoice_sequences_pkey",
}

// Check constraints that encode ledger rules, mapped to their error kind
var ruleConstraints = map[string]error{
	"products_stock_non_negative": ierr.ErrInsufficientStock,
}

// ClassifyError maps driver errors onto the ledger error taxonomy
func ClassifyError(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithMessage(op).
			WithHint("Resource not found").
			Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPQError(pqErr, op)
	}

	if isConnectionError(err) {
		return ierr.WithError(err).
			WithMessage(op).
			WithHint("Storage is unavailable, please try again later").
			Mark(ierr.ErrStorageUnavailable)
	}

	return ierr.WithError(err).
		WithMessage(op).
		WithHint("Database error").
		Mark(ierr.ErrDatabase)
}

func classifyPQError(pqErr *pq.Error, op string) error {
	details := map[string]any{
		"sqlstate":   string(pqErr.Code),
		"constraint": pqErr.Constraint,
	}

	switch string(pqErr.Code) {
	case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
		return ierr.WithError(pqErr).
			WithMessage(op).
			WithHint("The resource was modified concurrently, please retry").
			WithReportableDetails(details).
			Mark(ierr.ErrConcurrencyConflict)
	case pqUniqueViolation:
		if lo.Contains(raceConstraints, pqErr.Constraint) {
			return ierr.WithError(pqErr).
				WithMessage(op).
				WithHint("The resource was modified concurrently, please retry").
				WithReportableDetails(details).
				Mark(ierr.ErrConcurrencyConflict)
		}
		return ierr.WithError(pqErr).
			WithMessage(op).
			WithHint("Resource already exists").
			WithReportableDetails(details).
			Mark(ierr.ErrAlreadyExists)
	case pqForeignKeyViolation:
		return ierr.WithError(pqErr).
			WithMessage(op).
			WithHint("Referenced resource does not exist").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	case pqCheckViolation:
		if ref, ok := ruleConstraints[pqErr.Constraint]; ok {
			return ierr.WithError(pqErr).
				WithMessage(op).
				WithReportableDetails(details).
				Mark(ref)
		}
		return ierr.WithError(pqErr).
			WithMessage(op).
			WithHint("Invalid value").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	case pqAdminShutdown, pqCannotConnectNow, pqTooManyConnections:
		return ierr.WithError(pqErr).
			WithMessage(op).
			WithHint("Storage is unavailable, please try again later").
			Mark(ierr.ErrStorageUnavailable)
	}

	// class 08 is connection exception
	if strings.HasPrefix(string(pqErr.Code), "08") {
		return ierr.WithError(pqErr).
			WithMessage(op).
			WithHint("Storage is unavailable, please try again later").
			Mark(ierr.ErrStorageUnavailable)
	}

	return ierr.WithError(pqErr).
		WithMessage(op).
		WithHint("Database error").
		WithReportableDetails(details).
		Mark(ierr.ErrDatabase)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
