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

const pendingUserPlaceholderName = "New User"

// RegistrationService drives the OTP-gated signup state machine: a
// pending (inactive) user row plus a hashed OTP, activated only on a
// successful verification.
type RegistrationService struct {
	store         repository.Store
	auth          *AuthService
	mailer        mailer.Mailer
	otpLength     int
	otpTTL        time.Duration
	defaultRoleID uint
}

func NewRegistrationService(store repository.Store, auth *AuthService, mail mailer.Mailer, cfg config.OTPConfig, defaultRoleID uint) *RegistrationService {
	return &RegistrationService{
		store:         store,
		auth:          auth,
		mailer:        mail,
		otpLength:     cfg.CodeLength,
		otpTTL:        cfg.OtpTTL(),
		defaultRoleID: defaultRoleID,
	}
}

// SendOtp starts (or restarts) a registration. Any stale pending
// registration for the same email is superseded wholesale.
func (s *RegistrationService) SendOtp(ctx context.Context, req dto.SendRegistrationOtpRequest) (*dto.MessageResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "registration", "SendOtp")
	req.Email = normalizeEmail(req.Email)
	req.Username = normalizeUsername(req.Username)

	if err := s.checkConflicts(ctx, req.Email, req.Username); err != nil {
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

	var pending *model.User
	var otp *model.OtpToken

	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		stale, err := tx.Users().GetPendingByEmail(ctx, req.Email)
		switch {
		case err == nil:
			// Supersede: the new attempt owns the email.
			if err := tx.OtpTokens().DeleteAllForUser(ctx, stale.ID); err != nil {
				return err
			}
			if err := tx.Users().Delete(ctx, stale.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		pending = &model.User{
			Email:    req.Email,
			FullName: pendingUserPlaceholderName,
			RoleID:   s.defaultRoleID,
			IsActive: false,
		}
		if err := tx.Users().Create(ctx, pending); err != nil {
			return err
		}

		otp = &model.OtpToken{
			UserID:    pending.ID,
			Purpose:   constants.OtpPurposeRegistration,
			CodeHash:  codeHash,
			ExpiresAt: time.Now().Add(s.otpTTL),
		}
		return tx.OtpTokens().Create(ctx, otp)
	})
	if txErr != nil {
		logger.ErrorWithContext(ctx, "failed to stage pending registration").Err(txErr).Log()
		return nil, apperrors.ErrInternal
	}

	if err := s.mailer.SendRegistrationCode(ctx, req.Email, req.Username, code); err != nil {
		logger.ErrorWithContext(ctx, "otp email delivery failed").Err(err).Log()
		s.compensateSendFailure(ctx, otp.ID, pending.ID)
		return nil, apperrors.ServerError("Failed to send OTP email")
	}

	logger.InfoWithContext(ctx, "registration otp sent").
		Uint("target_user_id", pending.ID).
		Log()
	return &dto.MessageResponse{Message: "OTP has been sent to your email"}, nil
}

// compensateSendFailure unwinds the staged registration so the caller
// can retry from scratch.
func (s *RegistrationService) compensateSendFailure(ctx context.Context, otpID, userID uint) {
	if err := s.store.OtpTokens().Delete(ctx, otpID); err != nil {
		logger.WarnWithContext(ctx, "failed to clean up staged otp").
			Uint("otp_id", otpID).Err(err).Log()
	}
	if err := s.store.Users().Delete(ctx, userID); err != nil {
		logger.WarnWithContext(ctx, "failed to clean up pending user").
			Uint("target_user_id", userID).Err(err).Log()
	}
}

// Verify completes a registration: the OTP must match, conflicts are
// re-checked, and activation plus account creation happen in one
// transaction. The new user is logged in immediately.
func (s *RegistrationService) Verify(ctx context.Context, req dto.VerifyRegistrationRequest) (*dto.RegistrationResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "registration", "Verify")
	req.Email = normalizeEmail(req.Email)
	req.Username = normalizeUsername(req.Username)

	pending, err := s.store.Users().GetPendingByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("No pending registration found for this email")
		}
		logger.ErrorWithContext(ctx, "failed to load pending registration").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	otp, err := s.store.OtpTokens().GetActiveByUser(ctx, pending.ID, constants.OtpPurposeRegistration)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidOtpCode
		}
		logger.ErrorWithContext(ctx, "failed to load active otp").Err(err).Log()
		return nil, apperrors.ErrInternal
	}
	if !otpCodeMatches(otp.CodeHash, req.OtpCode) {
		return nil, apperrors.ErrInvalidOtpCode
	}

	// Conflicts may have appeared while the code sat in an inbox.
	if err := s.checkConflicts(ctx, req.Email, req.Username); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to hash password").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	account := &model.Account{
		UserID:       pending.ID,
		Username:     req.Username,
		PasswordHash: string(passwordHash),
	}

	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Activate(ctx, pending.ID, req.Name); err != nil {
			return err
		}
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		return tx.OtpTokens().MarkUsed(ctx, otp.ID, time.Now())
	})
	if txErr != nil {
		if isDuplicateKey(txErr) {
			return nil, apperrors.ErrUsernameExists
		}
		logger.ErrorWithContext(ctx, "failed to activate registration").Err(txErr).Log()
		return nil, apperrors.ErrInternal
	}

	user, err := s.store.Users().GetByID(ctx, pending.ID)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to reload activated user").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	login, err := s.auth.issueTokens(ctx, s.store, user, account, true)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "registration completed").
		Uint("target_user_id", user.ID).
		String("username", account.Username).
		Log()

	return &dto.RegistrationResponse{
		Message:          "Registration successful",
		AccessToken:      login.AccessToken,
		RefreshToken:     login.RefreshToken,
		ExpiresIn:        login.ExpiresIn,
		RefreshExpiresIn: login.RefreshExpiresIn,
		User:             login.User,
	}, nil
}

// ResendOtp replaces the live code for an existing pending
// registration. The pending user row is kept as-is.
func (s *RegistrationService) ResendOtp(ctx context.Context, req dto.ResendRegistrationOtpRequest) (*dto.MessageResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "registration", "ResendOtp")
	req.Email = normalizeEmail(req.Email)

	active, err := s.store.Users().ActiveEmailExists(ctx, req.Email)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to check active email").Err(err).Log()
		return nil, apperrors.ErrInternal
	}
	if active {
		return nil, apperrors.Conflict("User already active")
	}

	pending, err := s.store.Users().GetPendingByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("No pending registration found for this email")
		}
		logger.ErrorWithContext(ctx, "failed to load pending registration").Err(err).Log()
		return nil, apperrors.ErrInternal
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
		UserID:    pending.ID,
		Purpose:   constants.OtpPurposeRegistration,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(s.otpTTL),
	}

	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.OtpTokens().DeleteActiveForUser(ctx, pending.ID, constants.OtpPurposeRegistration); err != nil {
			return err
		}
		return tx.OtpTokens().Create(ctx, otp)
	})
	if txErr != nil {
		logger.ErrorWithContext(ctx, "failed to replace otp").Err(txErr).Log()
		return nil, apperrors.ErrInternal
	}

	// The chosen username is not persisted until verification, so the
	// resent mail greets by the address's local part instead.
	if err := s.mailer.SendRegistrationCode(ctx, req.Email, usernameSeed(pending.Email), code); err != nil {
		logger.ErrorWithContext(ctx, "otp email delivery failed").Err(err).Log()
		// Only the fresh code is unwound; the pending registration stays.
		if delErr := s.store.OtpTokens().Delete(ctx, otp.ID); delErr != nil {
			logger.WarnWithContext(ctx, "failed to clean up staged otp").
				Uint("otp_id", otp.ID).Err(delErr).Log()
		}
		return nil, apperrors.ServerError("Failed to send OTP email")
	}

	logger.InfoWithContext(ctx, "registration otp resent").
		Uint("target_user_id", pending.ID).
		Log()
	return &dto.MessageResponse{Message: "OTP has been resent to your email"}, nil
}

// checkConflicts rejects emails held by active users and usernames held
// by any account.
func (s *RegistrationService) checkConflicts(ctx context.Context, email, username string) error {
	emailTaken, err := s.store.Users().ActiveEmailExists(ctx, email)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to check active email").Err(err).Log()
		return apperrors.ErrInternal
	}
	if emailTaken {
		return apperrors.ErrEmailExists
	}

	usernameTaken, err := s.store.Accounts().UsernameExists(ctx, username)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to check username").Err(err).Log()
		return apperrors.ErrInternal
	}
	if usernameTaken {
		return apperrors.ErrUsernameExists
	}
	return nil
}
