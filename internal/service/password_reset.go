package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lumina-platform/auth-service/config"
	"github.com/lumina-platform/auth-service/internal/constants"
	"github.com/lumina-platform/auth-service/internal/dto"
	apperrors "github.com/lumina-platform/auth-service/internal/errors"
	"github.com/lumina-platform/auth-service/internal/model"
	"github.com/lumina-platform/auth-service/internal/repository"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
	"github.com/lumina-platform/auth-service/pkg/mailer"
)

// PasswordResetService handles OTP-based password recovery for
// credential accounts. Federated-only accounts are rejected up front.
type PasswordResetService struct {
	store     repository.Store
	mailer    mailer.Mailer
	otpLength int
	otpTTL    time.Duration
}

func NewPasswordResetService(store repository.Store, mail mailer.Mailer, cfg config.OTPConfig) *PasswordResetService {
	return &PasswordResetService{
		store:     store,
		mailer:    mail,
		otpLength: cfg.CodeLength,
		otpTTL:    cfg.OtpTTL(),
	}
}

// RequestReset mails a reset code to the account owner, replacing any
// live reset code.
func (s *PasswordResetService) RequestReset(ctx context.Context, req dto.ForgotPasswordRequest) (*dto.MessageResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "password_reset", "RequestReset")

	user, _, err := s.resolveCredentialOwner(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	code, err := generateOtpCode(s.otpLength)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to generate otp").Err(err).Log()
		return nil, apperrors.ErrInternal
	}
	codeHash, err := hashOtpCode(code)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to hash otp").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	otp := &model.OtpToken{
		UserID:    user.ID,
		Purpose:   constants.OtpPurposePasswordReset,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(s.otpTTL),
	}

	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.OtpTokens().DeleteActiveForUser(ctx, user.ID, constants.OtpPurposePasswordReset); err != nil {
			return err
		}
		return tx.OtpTokens().Create(ctx, otp)
	})
	if txErr != nil {
		logger.ErrorWithContext(ctx, "failed to stage reset otp").Err(txErr).Log()
		return nil, apperrors.ErrInternal
	}

	if err := s.mailer.SendPasswordResetCode(ctx, user.Email, user.FullName, code); err != nil {
		logger.ErrorWithContext(ctx, "otp email delivery failed").Err(err).Log()
		if delErr := s.store.OtpTokens().Delete(ctx, otp.ID); delErr != nil {
			logger.WarnWithContext(ctx, "failed to clean up staged otp").
				Uint("otp_id", otp.ID).Err(delErr).Log()
		}
		return nil, apperrors.ServerError("Failed to send OTP email")
	}

	logger.InfoWithContext(ctx, "password reset otp sent").
		Uint("target_user_id", user.ID).
		Log()
	return &dto.MessageResponse{Message: "An OTP has been sent to your email"}, nil
}

// VerifyResetCode checks a code without consuming it, so clients can
// gate the new-password form.
func (s *PasswordResetService) VerifyResetCode(ctx context.Context, req dto.VerifyResetCodeRequest) (*dto.MessageResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "password_reset", "VerifyResetCode")

	user, _, err := s.resolveCredentialOwner(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if _, err := s.matchActiveCode(ctx, user.ID, req.OtpCode); err != nil {
		return nil, err
	}

	return &dto.MessageResponse{Message: "OTP verified successfully"}, nil
}

// ResetPassword consumes the code and installs the new password hash
// atomically. Reusing the current password is rejected.
func (s *PasswordResetService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.MessageResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "password_reset", "ResetPassword")

	user, account, err := s.resolveCredentialOwner(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	otp, err := s.matchActiveCode(ctx, user.ID, req.OtpCode)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.NewPassword)) == nil {
		return nil, apperrors.BadRequest("New password must be different from the current password")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to hash password").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Accounts().UpdatePassword(ctx, account.ID, string(newHash)); err != nil {
			return err
		}
		return tx.OtpTokens().MarkUsed(ctx, otp.ID, time.Now())
	})
	if txErr != nil {
		logger.ErrorWithContext(ctx, "failed to reset password").Err(txErr).Log()
		return nil, apperrors.ErrInternal
	}

	logger.InfoWithContext(ctx, "password reset").
		Uint("target_user_id", user.ID).
		Log()
	return &dto.MessageResponse{Message: "Password has been reset successfully"}, nil
}

// resolveCredentialOwner maps an email to an active user and their
// password-bearing account.
func (s *PasswordResetService) resolveCredentialOwner(ctx context.Context, email string) (*model.User, *model.Account, error) {
	user, err := s.store.Users().GetActiveByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("Email not found")
		}
		logger.ErrorWithContext(ctx, "failed to look up user").Err(err).Log()
		return nil, nil, apperrors.ErrInternal
	}

	account, err := s.store.Accounts().GetCredentialByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.BadRequest("This account does not have a password set")
		}
		logger.ErrorWithContext(ctx, "failed to look up credential account").Err(err).Log()
		return nil, nil, apperrors.ErrInternal
	}
	if !account.HasPassword() {
		return nil, nil, apperrors.BadRequest("This account does not have a password set")
	}

	return user, account, nil
}

func (s *PasswordResetService) matchActiveCode(ctx context.Context, userID uint, code string) (*model.OtpToken, error) {
	otp, err := s.store.OtpTokens().GetActiveByUser(ctx, userID, constants.OtpPurposePasswordReset)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidOtpCode
		}
		logger.ErrorWithContext(ctx, "failed to load active otp").Err(err).Log()
		return nil, apperrors.ErrInternal
	}
	if !otpCodeMatches(otp.CodeHash, code) {
		return nil, apperrors.ErrInvalidOtpCode
	}
	return otp, nil
}
