package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lumina-platform/auth-service/config"
	"github.com/lumina-platform/auth-service/internal/model"
)

const testRoleID = uint(1)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                  "0123456789abcdef0123456789abcdef",
		Issuer:                  "auth-service",
		Audience:                "lumina-platform",
		AccessTokenExpiryMins:   60,
		RefreshTokenExpiryHours: 7 * 24,
	}
}

func testOTPConfig() config.OTPConfig {
	return config.OTPConfig{
		CodeLength:    6,
		ExpiryMinutes: 10,
	}
}

type sentMail struct {
	to   string
	name string
	code string
	kind string
}

// fakeMailer records outgoing codes so tests can replay them. Setting
// failNext makes the next send fail once.
type fakeMailer struct {
	sent     []sentMail
	failNext bool
}

func (m *fakeMailer) SendRegistrationCode(ctx context.Context, to, name, code string) error {
	if m.failNext {
		m.failNext = false
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, name: name, code: code, kind: "registration"})
	return nil
}

func (m *fakeMailer) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	if m.failNext {
		m.failNext = false
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, name: name, code: code, kind: "password_reset"})
	return nil
}

func (m *fakeMailer) lastCode() string {
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].code
}

type fakeVerifier struct {
	info *GoogleUserInfo
	err  error
}

func (v *fakeVerifier) Verify(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.info, nil
}

func newTestAuthService(t *testing.T, store *fakeStore, verifier GoogleVerifier) *AuthService {
	t.Helper()
	jwtSvc, err := NewJWTService(testJWTConfig())
	if err != nil {
		t.Fatalf("NewJWTService: %v", err)
	}
	if verifier == nil {
		verifier = &fakeVerifier{err: ErrGoogleNotConfigured}
	}
	return NewAuthService(store, jwtSvc, verifier, testJWTConfig(), testRoleID)
}

// seedActiveUser creates an active user plus a credential account with
// the given password.
func seedActiveUser(t *testing.T, store *fakeStore, email, username, password string) (*model.User, *model.Account) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{
		Email:    email,
		FullName: "Seeded User",
		RoleID:   testRoleID,
		IsActive: true,
	}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	account := &model.Account{
		UserID:       user.ID,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := store.Accounts().Create(ctx, account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return user, account
}

func activeTokenCount(t *testing.T, store *fakeStore, userID uint) int64 {
	t.Helper()
	count, err := store.RefreshTokens().CountActiveForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	return count
}

func storedToken(t *testing.T, store *fakeStore, token string) *model.RefreshToken {
	t.Helper()
	stored, err := store.RefreshTokens().GetByToken(context.Background(), token)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("get token: %v", err)
	}
	return stored
}
