package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client-facing messages. Login failures share one message so callers
// cannot tell an unknown email from a wrong password.
const (
	MsgCredentialsRequired = "Email and password required"
	MsgInvalidCredentials  = "Invalid email or password"
	MsgEmailTaken          = "Email already registered"
	MsgRegisterFailed      = "Error registering user"
	MsgLoginFailed         = "Error logging in"
	MsgInvalidToken        = "Invalid or expired token"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
)

// Common application errors
var (
	ErrInvalidCredentials = &InvalidCredentialsError{}
	ErrInvalidToken       = NewUnauthorizedError(MsgInvalidToken, nil)
	ErrMissingToken       = NewUnauthorizedError("Authorization token required", nil)
)

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// PublicMessage returns the text safe to show to the caller
func (e *ValidationError) PublicMessage() string { return e.Message }

// HTTPStatus returns the HTTP status for this error
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// GRPCStatus returns the gRPC status for this error
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Message)
}

// InvalidCredentialsError is returned for both unknown emails and wrong
// passwords. It carries no detail on purpose.
type InvalidCredentialsError struct{}

// Error implements the error interface
func (e *InvalidCredentialsError) Error() string { return MsgInvalidCredentials }

// PublicMessage returns the text safe to show to the caller
func (e *InvalidCredentialsError) PublicMessage() string { return MsgInvalidCredentials }

// HTTPStatus returns the HTTP status for this error
func (e *InvalidCredentialsError) HTTPStatus() int { return http.StatusBadRequest }

// GRPCStatus returns the gRPC status for this error
func (e *InvalidCredentialsError) GRPCStatus() *status.Status {
	return status.New(codes.Unauthenticated, MsgInvalidCredentials)
}

// DuplicateEmailError represents a uniqueness violation on the email column
type DuplicateEmailError struct {
	Email string
}

// NewDuplicateEmailError creates a new duplicate email error
func NewDuplicateEmailError(email string) *DuplicateEmailError {
	return &DuplicateEmailError{Email: email}
}

// Error implements the error interface
func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// PublicMessage returns the text safe to show to the caller
func (e *DuplicateEmailError) PublicMessage() string { return MsgEmailTaken }

// HTTPStatus returns the HTTP status for this error
func (e *DuplicateEmailError) HTTPStatus() int { return http.StatusConflict }

// GRPCStatus returns the gRPC status for this error
func (e *DuplicateEmailError) GRPCStatus() *status.Status {
	return status.New(codes.AlreadyExists, MsgEmailTaken)
}

// PersistenceError represents a store failure. Err holds the underlying
// detail, which is only echoed to callers when explicitly allowed.
type PersistenceError struct {
	Message string
	Err     error
}

// NewPersistenceError creates a new persistence error
func NewPersistenceError(message string, err error) *PersistenceError {
	return &PersistenceError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PublicMessage returns the text safe to show to the caller
func (e *PersistenceError) PublicMessage() string { return e.Message }

// Details returns the underlying store error text, or "" if there is none
func (e *PersistenceError) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// HTTPStatus returns the HTTP status for this error
func (e *PersistenceError) HTTPStatus() int { return http.StatusInternalServerError }

// GRPCStatus returns the gRPC status for this error
func (e *PersistenceError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}

// UnauthorizedError represents a missing, invalid, expired or revoked token
type UnauthorizedError struct {
	Message string
	Err     error
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, err error) *UnauthorizedError {
	return &UnauthorizedError{Message: message, Err: err}
}

// Error implements the error interface
func (e *UnauthorizedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

// PublicMessage returns the text safe to show to the caller
func (e *UnauthorizedError) PublicMessage() string { return e.Message }

// HTTPStatus returns the HTTP status for this error
func (e *UnauthorizedError) HTTPStatus() int { return http.StatusUnauthorized }

// GRPCStatus returns the gRPC status for this error
func (e *UnauthorizedError) GRPCStatus() *status.Status {
	return status.New(codes.Unauthenticated, e.Message)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// PublicMessage returns the text safe to show to the caller
func (e *NotFoundError) PublicMessage() string { return e.Error() }

// HTTPStatus returns the HTTP status for this error
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// GRPCStatus returns the gRPC status for this error
func (e *NotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// GRPCStatuser interface for errors that can provide gRPC status
type GRPCStatuser interface {
	GRPCStatus() *status.Status
}

// Classified is implemented by every error type in this package.
type Classified interface {
	error
	HTTPStatus() int
	PublicMessage() string
}

// HTTPStatus returns the HTTP status for err and the message safe to send
// to the client. Unclassified errors map to a generic 500.
func HTTPStatus(err error) (int, string) {
	var c Classified
	if errors.As(err, &c) {
		return c.HTTPStatus(), c.PublicMessage()
	}
	return http.StatusInternalServerError, "An internal error occurred"
}
