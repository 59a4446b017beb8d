package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumina-platform/auth-service/config"
	"github.com/lumina-platform/auth-service/internal/constants"
	"github.com/lumina-platform/auth-service/internal/dto"
	apperrors "github.com/lumina-platform/auth-service/internal/errors"
	"github.com/lumina-platform/auth-service/internal/model"
	"github.com/lumina-platform/auth-service/internal/repository"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
)

const (
	googleNameFallback = "Google User"
	maxFullNameLength  = 50
)

// AuthService implements credential login, Google-federated login and
// refresh token rotation.
type AuthService struct {
	store          repository.Store
	jwt            *JWTService
	googleVerifier GoogleVerifier
	refreshTTL     time.Duration
	defaultRoleID  uint
}

func NewAuthService(store repository.Store, jwtSvc *JWTService, verifier GoogleVerifier, cfg config.JWTConfig, defaultRoleID uint) *AuthService {
	return &AuthService{
		store:          store,
		jwt:            jwtSvc,
		googleVerifier: verifier,
		refreshTTL:     cfg.RefreshTokenTTL(),
		defaultRoleID:  defaultRoleID,
	}
}

// Login authenticates by username or email plus password. Identifiers
// containing "@" are resolved through the email first, falling back to a
// username lookup. Every failure before the activity check collapses to
// the same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "auth", "Login")

	account, err := s.resolveAccount(ctx, normalizeUsername(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		logger.ErrorWithContext(ctx, "failed to resolve account").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	if !account.HasPassword() {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.store.Users().GetByID(ctx, account.UserID)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to load user for account").
			Uint("account_id", account.ID).Err(err).Log()
		return nil, apperrors.ErrInternal
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	resp, err := s.issueTokens(ctx, s.store, user, account, true)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "user logged in").
		Uint("target_user_id", user.ID).
		String("username", account.Username).
		Log()
	return resp, nil
}

func (s *AuthService) resolveAccount(ctx context.Context, identifier string) (*model.Account, error) {
	if strings.Contains(identifier, "@") {
		account, err := s.store.Accounts().GetCredentialByEmail(ctx, identifier)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Fall through: "@" identifiers may still be usernames.
	}
	return s.store.Accounts().GetByUsername(ctx, identifier)
}

// GoogleLogin verifies a Google ID token and signs the user in, creating
// the user and federated account on first contact.
func (s *AuthService) GoogleLogin(ctx context.Context, req dto.GoogleLoginRequest) (*dto.LoginResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "auth", "GoogleLogin")

	info, err := s.googleVerifier.Verify(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrGoogleNotConfigured):
			return nil, apperrors.ServerError("Google login is not configured")
		case errors.Is(err, ErrInvalidGoogleToken):
			return nil, apperrors.Unauthorized("Invalid Google token")
		default:
			logger.ErrorWithContext(ctx, "google token verification failed").Err(err).Log()
			return nil, apperrors.ServerError("Failed to verify Google token")
		}
	}
	info.Email = normalizeEmail(info.Email)
	if info.Email == "" {
		return nil, apperrors.BadRequest("Google account email is required")
	}

	account, err := s.store.Accounts().GetByProvider(ctx, constants.ProviderGoogle, info.Subject)
	switch {
	case err == nil:
		return s.googleLoginExisting(ctx, account, info, req.Token)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.googleLoginFirstContact(ctx, info, req.Token)
	default:
		logger.ErrorWithContext(ctx, "failed to look up federated account").Err(err).Log()
		return nil, apperrors.ErrInternal
	}
}

func (s *AuthService) googleLoginExisting(ctx context.Context, account *model.Account, info *GoogleUserInfo, idToken string) (*dto.LoginResponse, error) {
	user, err := s.store.Users().GetByID(ctx, account.UserID)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to load user for federated account").
			Uint("account_id", account.ID).Err(err).Log()
		return nil, apperrors.ErrInternal
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	if err := s.store.Accounts().UpdateProviderToken(ctx, account.ID, idToken, info.ExpiresAt, datatypes.JSON(info.Claims)); err != nil {
		logger.ErrorWithContext(ctx, "failed to refresh provider token").
			Uint("account_id", account.ID).Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	// Accounts created before username backfill may still be blank.
	if account.Username == "" {
		username, err := generateUniqueUsername(ctx, s.store.Accounts(), user.Email)
		if err != nil {
			logger.ErrorWithContext(ctx, "failed to generate username").Err(err).Log()
			return nil, apperrors.ErrInternal
		}
		if err := s.store.Accounts().UpdateUsername(ctx, account.ID, username); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "username backfill failed").
				Uint("account_id", account.ID).Err(err).Log()
		} else {
			account.Username = username
		}
	}

	resp, err := s.issueTokens(ctx, s.store, user, account, true)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "federated login").
		Uint("target_user_id", user.ID).
		String("provider", constants.ProviderGoogle).
		Log()
	return resp, nil
}

func (s *AuthService) googleLoginFirstContact(ctx context.Context, info *GoogleUserInfo, idToken string) (*dto.LoginResponse, error) {
	name := info.Name
	if name == "" {
		name = googleNameFallback
	}
	// Truncate by runes; display names can carry multibyte characters.
	if runes := []rune(name); len(runes) > maxFullNameLength {
		name = string(runes[:maxFullNameLength])
	}

	var user *model.User
	var account *model.Account

	provision := func() error {
		return s.store.Transaction(ctx, func(tx repository.Store) error {
			existing, err := tx.Users().GetByEmail(ctx, info.Email)
			switch {
			case err == nil:
				user = existing
			case errors.Is(err, gorm.ErrRecordNotFound):
				user = &model.User{
					Email:    info.Email,
					FullName: name,
					RoleID:   s.defaultRoleID,
					IsActive: true,
				}
				if err := tx.Users().Create(ctx, user); err != nil {
					return err
				}
			default:
				return err
			}

			if !user.IsActive {
				return apperrors.ErrAccountInactive
			}

			username, err := generateUniqueUsername(ctx, tx.Accounts(), info.Email)
			if err != nil {
				return err
			}

			account = &model.Account{
				UserID:         user.ID,
				Username:       username,
				AuthProvider:   constants.ProviderGoogle,
				ProviderUserID: info.Subject,
				AccessToken:    idToken,
				TokenExpiresAt: info.ExpiresAt,
				ProviderClaims: datatypes.JSON(info.Claims),
			}
			return tx.Accounts().Create(ctx, account)
		})
	}

	// The availability check races with concurrent signups; the unique
	// index is the backstop, so retry with a fresh candidate.
	txErr := provision()
	for attempt := 0; attempt < 2 && isDuplicateKey(txErr); attempt++ {
		txErr = provision()
	}
	if txErr != nil {
		if domainErr := apperrors.GetDomainError(txErr); domainErr != nil {
			return nil, domainErr
		}
		logger.ErrorWithContext(ctx, "failed to provision federated user").Err(txErr).Log()
		return nil, apperrors.ErrInternal
	}

	// Role association is needed for the token's role claim.
	loaded, err := s.store.Users().GetByID(ctx, user.ID)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to reload provisioned user").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	resp, err := s.issueTokens(ctx, s.store, loaded, account, true)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "federated user provisioned").
		Uint("target_user_id", loaded.ID).
		String("provider", constants.ProviderGoogle).
		Log()
	return resp, nil
}

// Refresh rotates a refresh token: the presented token is looked up
// verbatim, revoked, and replaced by a fresh pair. Other sessions are
// left untouched.
func (s *AuthService) Refresh(ctx context.Context, req dto.RefreshTokenRequest) (*dto.LoginResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "auth", "Refresh")

	stored, err := s.store.RefreshTokens().GetByToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		logger.ErrorWithContext(ctx, "failed to look up refresh token").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	now := time.Now()
	if stored.IsRevoked {
		return nil, apperrors.ErrRefreshTokenRevoked
	}
	if stored.Expired(now) {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if !stored.User.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	account, err := s.store.Accounts().GetPrimaryByUserID(ctx, stored.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.ErrorWithContext(ctx, "failed to load account for refresh").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	access, err := s.jwt.GenerateToken(&stored.User)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to sign access token").Err(err).Log()
		return nil, apperrors.ErrInternal
	}
	nextToken, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to mint refresh token").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.RefreshTokens().Revoke(ctx, stored.ID, constants.RevokedReasonRefreshed, nextToken); err != nil {
			return err
		}
		return tx.RefreshTokens().Create(ctx, &model.RefreshToken{
			UserID:    stored.UserID,
			Token:     nextToken,
			ExpiresAt: now.Add(s.refreshTTL),
		})
	})
	if txErr != nil {
		logger.ErrorWithContext(ctx, "failed to rotate refresh token").Err(txErr).Log()
		return nil, apperrors.ErrInternal
	}

	logger.InfoWithContext(ctx, "refresh token rotated").
		Uint("target_user_id", stored.UserID).
		Log()

	return s.buildLoginResponse(&stored.User, account, access, nextToken), nil
}

// issueTokens signs an access token and mints a refresh token for the
// user. When revokeExisting is set, all of the user's live refresh
// tokens are revoked first so a fresh login owns the only session.
func (s *AuthService) issueTokens(ctx context.Context, store repository.Store, user *model.User, account *model.Account, revokeExisting bool) (*dto.LoginResponse, error) {
	access, err := s.jwt.GenerateToken(user)
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to sign access token").Err(err).Log()
		return nil, apperrors.ErrInternal
	}
	refreshToken, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		logger.ErrorWithContext(ctx, "failed to mint refresh token").Err(err).Log()
		return nil, apperrors.ErrInternal
	}

	txErr := store.Transaction(ctx, func(tx repository.Store) error {
		if revokeExisting {
			if err := tx.RefreshTokens().RevokeAllActiveForUser(ctx, user.ID, constants.RevokedReasonReplaced); err != nil {
				return err
			}
		}
		return tx.RefreshTokens().Create(ctx, &model.RefreshToken{
			UserID:    user.ID,
			Token:     refreshToken,
			ExpiresAt: time.Now().Add(s.refreshTTL),
		})
	})
	if txErr != nil {
		logger.ErrorWithContext(ctx, "failed to persist refresh token").Err(txErr).Log()
		return nil, apperrors.ErrInternal
	}

	return s.buildLoginResponse(user, account, access, refreshToken), nil
}

func (s *AuthService) buildLoginResponse(user *model.User, account *model.Account, access *TokenResult, refreshToken string) *dto.LoginResponse {
	username := ""
	if account != nil {
		username = account.Username
	}
	return &dto.LoginResponse{
		AccessToken:      access.Token,
		RefreshToken:     refreshToken,
		ExpiresIn:        access.ExpiresIn,
		RefreshExpiresIn: int(s.refreshTTL.Seconds()),
		User: dto.AuthUser{
			ID:       strconv.FormatUint(uint64(user.ID), 10),
			Username: username,
			Email:    user.Email,
			Name:     user.FullName,
			Role:     user.Role.Name,
		},
	}
}
