package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal server error")
	ErrTransient      = errors.New("transient failure, try again")
	ErrBadRequest     = errors.New("bad request")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Code classifies an error for callers. Every business rejection carries one.
type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeNotFound       Code = "NOT_FOUND"
	CodeForbidden      Code = "FORBIDDEN"
	CodeConflict       Code = "CONFLICT"
	CodeFault          Code = "FAULT"
)

// Reason codes attached to booking errors.
const (
	ReasonInvalidRange        = "invalid_range"
	ReasonInvalidDate         = "invalid_date"
	ReasonTermsNotAccepted    = "terms_not_accepted"
	ReasonMissingIdentity     = "missing_identity"
	ReasonIncompleteGuestInfo = "incomplete_guest_info"
	ReasonVehicleNotFound     = "vehicle_not_found"
	ReasonRentalNotFound      = "rental_not_found"
	ReasonSaleNotFound        = "sale_not_found"
	ReasonVehicleNotRentable  = "vehicle_not_rentable"
	ReasonVehicleNotSellable  = "vehicle_not_sellable"
	ReasonMissingSalePrice    = "missing_sale_price"
	ReasonDateConflict        = "date_conflict"
	ReasonSaleBlocked         = "sale_blocked"
	ReasonInvalidTransition   = "invalid_transition"
	ReasonInvalidStatus       = "invalid_status"
	ReasonNotCancellable      = "not_cancellable"
	ReasonNotOwner            = "not_owner"
	ReasonInvalidPayment      = "invalid_payment_method"
	ReasonTransactionFailed   = "transaction_failed"
)

// Error is a classified application error.
type Error struct {
	Code    Code        `json:"code"`
	Reason  string      `json:"reason"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel that corresponds to the code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeInvalidRequest:
		return target == ErrInvalidInput || target == ErrBadRequest
	case CodeNotFound:
		return target == ErrNotFound
	case CodeForbidden:
		return target == ErrForbidden
	case CodeConflict:
		return target == ErrConflict
	case CodeFault:
		return target == ErrTransient || target == ErrInternal
	}
	return false
}

func newError(code Code, reason, message string) *Error {
	return &Error{Code: code, Reason: reason, Message: message}
}

func InvalidRequest(reason, message string) *Error {
	return newError(CodeInvalidRequest, reason, message)
}

func NotFound(reason, message string) *Error {
	return newError(CodeNotFound, reason, message)
}

func Forbidden(reason, message string) *Error {
	return newError(CodeForbidden, reason, message)
}

// Conflict builds a business rejection; details describe what the request collided with.
func Conflict(reason, message string, details interface{}) *Error {
	e := newError(CodeConflict, reason, message)
	e.Details = details
	return e
}

func Fault(reason, message string, err error) *Error {
	e := newError(CodeFault, reason, message)
	e.Err = err
	return e
}

// As extracts a classified error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of a classified error, or "" for unclassified ones.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

// ReasonOf returns the reason code of a classified error, or "".
func ReasonOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Reason
	}
	return ""
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
