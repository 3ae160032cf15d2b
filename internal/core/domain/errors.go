package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrAccountPending     = errors.New("your account is pending approval, please wait for admin approval")
	ErrAccountRejected    = errors.New("your account has been rejected")
	ErrNotPendingApproval = errors.New("user is not pending approval")

	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists with this email or phone")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrDuplicatePhone   = errors.New("customer with this phone number already exists")
	ErrBrandNotFound    = errors.New("brand not found")
	ErrDuplicateBrand   = errors.New("a brand with this name already exists in your account")
	ErrItemNotFound     = errors.New("item not found")
	ErrEstimateNotFound = errors.New("estimate not found")

	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrEstimateLocked       = errors.New("estimate is closed for changes")
	ErrDuplicateEstimateNum = errors.New("estimate number already taken")
	ErrEstimateConflict     = errors.New("estimate was changed by another request")
)

// FieldError describes a single rejected request field.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

// ValidationError carries field-level failures back to the transport layer.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Msg)
	}
	return strings.Join(msgs, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(param, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Param: param, Msg: msg}}}
}

// RejectedError is returned by login when an admin rejected the registration.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return ErrAccountRejected.Error() }

func (e *RejectedError) Unwrap() error { return ErrAccountRejected }
