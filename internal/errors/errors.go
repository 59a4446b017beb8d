package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Error codes, defined independent of transport. The HTTP mapping lives in
// ToHTTPStatus and is only consulted at the handler layer.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeServerError  = "SERVER_ERROR"
)

// Factory helpers for errors whose message is decided at the point of
// detection (wrong OTP, duplicate email, and so on).

func BadRequest(message string) *DomainError {
	return NewDomainError(CodeBadRequest, message)
}

func Unauthorized(message string) *DomainError {
	return NewDomainError(CodeUnauthorized, message)
}

func NotFound(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

func Conflict(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

func ServerError(message string) *DomainError {
	return NewDomainError(CodeServerError, message)
}

// Predefined domain errors for conditions that always carry the same message.
var (
	// Deliberately identical message for "no such account" and "wrong
	// password" to avoid user enumeration.
	ErrInvalidCredentials = Unauthorized("Invalid username or password")
	ErrAccountInactive    = Unauthorized("Account is inactive")

	// Expired and unknown tokens share a message; only explicit revocation
	// is reported distinctly.
	ErrInvalidRefreshToken = Unauthorized("Invalid refresh token")
	ErrRefreshTokenRevoked = Unauthorized("Refresh token has been revoked")

	ErrInvalidOtpCode = BadRequest("Invalid or expired OTP code")

	ErrEmailExists    = Conflict("Email already exists")
	ErrUsernameExists = Conflict("Username already exists")

	ErrInternal = ServerError("internal server error")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case CodeBadRequest:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
