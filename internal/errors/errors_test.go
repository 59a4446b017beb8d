package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrAccountInactive, http.StatusUnauthorized},
		{ErrInvalidRefreshToken, http.StatusUnauthorized},
		{ErrInvalidOtpCode, http.StatusBadRequest},
		{ErrEmailExists, http.StatusConflict},
		{ErrUsernameExists, http.StatusConflict},
		{NotFound("Email not found"), http.StatusNotFound},
		{ServerError("Failed to send OTP email"), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, ToHTTPStatus(tc.err), "error %v", tc.err)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := WrapError(ServerError("Failed to send OTP email"), cause)

	assert.True(t, errors.Is(wrapped, cause))
	assert.Contains(t, wrapped.Error(), "Failed to send OTP email")
}

func TestGetDomainErrorThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", ErrRefreshTokenRevoked)

	domainErr := GetDomainError(err)
	assert.NotNil(t, domainErr)
	assert.Equal(t, CodeUnauthorized, domainErr.Code)
	assert.Equal(t, "Refresh token has been revoked", GetErrorMessage(err))
}

func TestGetErrorMessagePlainError(t *testing.T) {
	assert.Equal(t, "boom", GetErrorMessage(errors.New("boom")))
}
