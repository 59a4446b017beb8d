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

// PasswordResetFlow covers the OTP-based password recovery operations.
type PasswordResetFlow interface {
	RequestReset(ctx context.Context, req dto.ForgotPasswordRequest) (*dto.MessageResponse, error)
	VerifyResetCode(ctx context.Context, req dto.VerifyResetCodeRequest) (*dto.MessageResponse, error)
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.MessageResponse, error)
}

type PasswordResetHandler struct {
	service PasswordResetFlow
}

func NewPasswordResetHandler(service PasswordResetFlow) *PasswordResetHandler {
	return &PasswordResetHandler{service: service}
}

// ForgotPassword mails a reset code to the account owner
func (h *PasswordResetHandler) ForgotPassword(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "ForgotPassword")

	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid forgot password request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	response, err := h.service.RequestReset(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Password reset request failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, response)
}

// VerifyResetCode checks a reset code without consuming it
func (h *PasswordResetHandler) VerifyResetCode(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "VerifyResetCode")

	var req dto.VerifyResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid verify reset code request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	response, err := h.service.VerifyResetCode(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Reset code verification failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResetPassword consumes the code and installs the new password
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "ResetPassword")

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid reset password request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validation.FormatValidationErrors(err)))
		return
	}

	response, err := h.service.ResetPassword(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Password reset failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, response)
}
