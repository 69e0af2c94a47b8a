package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Item tree errors.
	ErrItemNotFound      = New("ITEM_NOT_FOUND", http.StatusNotFound, "item not found")
	ErrItemNotFolder     = New("ITEM_NOT_FOLDER", http.StatusBadRequest, "parent item is not a folder")
	ErrHierarchyTooDeep  = New("HIERARCHY_TOO_DEEP", http.StatusBadRequest, "item hierarchy would exceed the maximum depth")
	ErrTooManyChildren   = New("TOO_MANY_CHILDREN", http.StatusBadRequest, "folder already holds the maximum number of children")
	ErrInvalidMoveTarget = New("INVALID_MOVE_TARGET", http.StatusBadRequest, "invalid move destination")
	ErrCannotReorderRoot = New("CANNOT_REORDER_ROOT_ITEM", http.StatusBadRequest, "root items are unordered")
	ErrBulkOpNotFound    = New("BULK_OPERATION_NOT_FOUND", http.StatusNotFound, "bulk operation not found")

	// Permission errors.
	ErrMemberCannotAccess = New("MEMBER_CANNOT_ACCESS", http.StatusForbidden, "member cannot access item")
	ErrMemberCannotWrite  = New("MEMBER_CANNOT_WRITE_ITEM", http.StatusForbidden, "member cannot write item")
	ErrMemberCannotAdmin  = New("MEMBER_CANNOT_ADMIN_ITEM", http.StatusForbidden, "member cannot administer item")
	ErrRedundantGrant     = New("REDUNDANT_GRANT", http.StatusConflict, "membership is already granted by inheritance")
	ErrGrantNotFound      = New("GRANT_NOT_FOUND", http.StatusNotFound, "membership grant not found")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
