package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumina-platform/auth-service/internal/constants"
	"github.com/lumina-platform/auth-service/internal/dto"
	apperrors "github.com/lumina-platform/auth-service/internal/errors"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
	"github.com/lumina-platform/auth-service/pkg/validation"
)

// AuthenticationService is the slice of the auth service the handler
// needs.
type AuthenticationService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	GoogleLogin(ctx context.Context, req dto.GoogleLoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req dto.RefreshTokenRequest) (*dto.LoginResponse, error)
}

// RegistrationFlow covers the OTP-gated signup operations.
type RegistrationFlow interface {
	SendOtp(ctx context.Context, req dto.SendRegistrationOtpRequest) (*dto.MessageResponse, error)
	Verify(ctx context.Context, req dto.VerifyRegistrationRequest) (*dto.RegistrationResponse, error)
	ResendOtp(ctx context.Context, req dto.ResendRegistrationOtpRequest) (*dto.MessageResponse, error)
}

type AuthHandler struct {
	authService  AuthenticationService
	registration RegistrationFlow
}

func NewAuthHandler(authService AuthenticationService, registration RegistrationFlow) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		registration: registration,
	}
}

// Login handles credential authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	logger.InfoWithContext(ctx, "Login attempt").
		String("identifier", req.Username).
		Log()

	response, err := h.authService.Login(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("identifier", req.Username).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, response)
}

// GoogleLogin handles federated authentication with a Google ID token
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "GoogleLogin")

	var req dto.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid google login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	response, err := h.authService.GoogleLogin(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Google login failed").
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, response)
}

// RefreshToken rotates a refresh token into a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "RefreshToken")

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid refresh token request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	response, err := h.authService.Refresh(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, response)
}

// SendRegistrationOtp starts a registration
func (h *AuthHandler) SendRegistrationOtp(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "SendRegistrationOtp")

	var req dto.SendRegistrationOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid registration request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	response, err := h.registration.SendOtp(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration OTP request failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, response)
}

// VerifyRegistration completes a registration and logs the user in
func (h *AuthHandler) VerifyRegistration(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "VerifyRegistration")

	var req dto.VerifyRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid verification request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	response, err := h.registration.Verify(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration verification failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ResendRegistrationOtp replaces the live registration code
func (h *AuthHandler) ResendRegistrationOtp(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "ResendRegistrationOtp")

	var req dto.ResendRegistrationOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid resend request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	response, err := h.registration.ResendOtp(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration OTP resend failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, response)
}

// Me returns the authenticated user's identity from the gin context set
// by the JWT middleware.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := c.Get(constants.GinKeyUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    userID,
		"email": c.GetString(constants.GinKeyEmail),
		"role":  c.GetString(constants.GinKeyUserRole),
	})
}
