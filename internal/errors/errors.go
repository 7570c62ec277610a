package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound            = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists       = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation          = new(ErrCodeValidation, "validation error")
	ErrPermissionDenied    = new(ErrCodePermissionDenied, "permission denied")
	ErrInvalidTransition   = new(ErrCodeInvalidTransition, "invalid status transition")
	ErrInvalidInvoiceState = new(ErrCodeInvalidInvoiceState, "invalid invoice state")
	ErrInsufficientStock   = new(ErrCodeInsufficientStock, "insufficient stock")
	ErrOverpayment         = new(ErrCodeOverpayment, "payment exceeds balance")
	ErrInvoiceHasPayments  = new(ErrCodeInvoiceHasPayments, "invoice has payments")
	ErrInvalidOperation    = new(ErrCodeInvalidOperation, "invalid operation")
	ErrConcurrencyConflict = new(ErrCodeConcurrencyConflict, "concurrency conflict")
	ErrStorageUnavailable  = new(ErrCodeStorageUnavailable, "storage unavailable")
	ErrDatabase            = new(ErrCodeDatabase, "database error")
	ErrSystem              = new(ErrCodeSystemError, "system error")

	// ordered from most to least specific, a storage error can also carry a database mark
	statusCodes = []struct {
		err    *InternalError
		status int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidOperation, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrInvalidInvoiceState, http.StatusConflict},
		{ErrInsufficientStock, http.StatusConflict},
		{ErrOverpayment, http.StatusConflict},
		{ErrInvoiceHasPayments, http.StatusConflict},
		{ErrConcurrencyConflict, http.StatusConflict},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrStorageUnavailable, http.StatusServiceUnavailable},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeNotFound            = "not_found"
	ErrCodeAlreadyExists       = "already_exists"
	ErrCodeValidation          = "validation_error"
	ErrCodePermissionDenied    = "permission_denied"
	ErrCodeInvalidTransition   = "invalid_transition"
	ErrCodeInvalidInvoiceState = "invalid_invoice_state"
	ErrCodeInsufficientStock   = "insufficient_stock"
	ErrCodeOverpayment         = "overpayment"
	ErrCodeInvoiceHasPayments  = "invoice_has_payments"
	ErrCodeInvalidOperation    = "invalid_operation"
	ErrCodeConcurrencyConflict = "concurrency_conflict"
	ErrCodeStorageUnavailable  = "storage_unavailable"
	ErrCodeDatabase            = "database_error"
	ErrCodeSystemError         = "system_error"
)

// InternalError is a sentinel identified by its code
type InternalError struct {
	Code    string
	Message string
	Op      string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by code
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsConcurrencyConflict reports whether the operation may be retried as is
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsBusinessRule reports errors caused by the request rather than the infrastructure
func IsBusinessRule(err error) bool {
	for _, ref := range []error{
		ErrValidation, ErrNotFound, ErrPermissionDenied, ErrInvalidTransition,
		ErrInvalidInvoiceState, ErrInsufficientStock, ErrOverpayment,
		ErrInvoiceHasPayments, ErrInvalidOperation, ErrAlreadyExists,
	} {
		if errors.Is(err, ref) {
			return true
		}
	}
	return false
}

// Code returns the taxonomy code of the first matching sentinel
func Code(err error) string {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.err.Code
		}
	}
	return ErrCodeSystemError
}

func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}
