package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumina-platform/auth-service/internal/model"
	"github.com/lumina-platform/auth-service/internal/repository"
)

// fakeStore is an in-memory Store for exercising services without a
// database. It mirrors the repository contracts, including
// gorm.ErrRecordNotFound on misses and gorm.ErrDuplicatedKey on unique
// violations.
type fakeStore struct {
	mu sync.Mutex

	roles         map[uint]model.Role
	users         map[uint]*model.User
	accounts      map[uint]*model.Account
	refreshTokens map[uint]*model.RefreshToken
	otpTokens     map[uint]*model.OtpToken

	nextID uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roles: map[uint]model.Role{
			1: {Model: gorm.Model{ID: 1}, Name: model.RoleLearner},
		},
		users:         make(map[uint]*model.User),
		accounts:      make(map[uint]*model.Account),
		refreshTokens: make(map[uint]*model.RefreshToken),
		otpTokens:     make(map[uint]*model.OtpToken),
	}
}

func (s *fakeStore) allocID() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) Users() repository.UserRepository               { return &fakeUserRepo{s} }
func (s *fakeStore) Accounts() repository.AccountRepository         { return &fakeAccountRepo{s} }
func (s *fakeStore) RefreshTokens() repository.RefreshTokenRepository {
	return &fakeRefreshTokenRepo{s}
}
func (s *fakeStore) OtpTokens() repository.OtpTokenRepository { return &fakeOtpTokenRepo{s} }

// Transaction runs fn against the same store. Tests that need rollback
// coverage use the real database.
func (s *fakeStore) Transaction(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

func (s *fakeStore) userWithRole(u *model.User) *model.User {
	copied := *u
	copied.Role = s.roles[u.RoleID]
	return &copied
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.s.userWithRole(u), nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return r.s.userWithRole(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email && u.IsActive {
			return r.s.userWithRole(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetPendingByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email && !u.IsActive {
			return r.s.userWithRole(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ActiveEmailExists(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email && u.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.s.allocID()
	user.CreatedAt = time.Now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Activate(ctx context.Context, id uint, fullName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = true
	u.FullName = fullName
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.users, id)
	return nil
}

type fakeAccountRepo struct{ s *fakeStore }

func (r *fakeAccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) GetCredentialByEmail(ctx context.Context, email string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.AuthProvider != "" {
			continue
		}
		if u, ok := r.s.users[a.UserID]; ok && u.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) GetCredentialByUserID(ctx context.Context, userID uint) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.UserID == userID && a.AuthProvider == "" {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) GetPrimaryByUserID(ctx context.Context, userID uint) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var owned []*model.Account
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	if len(owned) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].AuthProvider != owned[j].AuthProvider {
			return owned[i].AuthProvider < owned[j].AuthProvider
		}
		return owned[i].ID < owned[j].ID
	})
	copied := *owned[0]
	return &copied, nil
}

func (r *fakeAccountRepo) GetByProvider(ctx context.Context, provider, providerUserID string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.AuthProvider == provider && a.ProviderUserID == providerUserID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) GetByUserAndProvider(ctx context.Context, userID uint, provider string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.UserID == userID && a.AuthProvider == provider {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == account.Username && account.Username != "" {
			return gorm.ErrDuplicatedKey
		}
	}
	account.ID = r.s.allocID()
	account.CreatedAt = time.Now()
	stored := *account
	r.s.accounts[account.ID] = &stored
	return nil
}

func (r *fakeAccountRepo) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func (r *fakeAccountRepo) UpdateUsername(ctx context.Context, id uint, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok || a.Username != "" {
		return gorm.ErrRecordNotFound
	}
	a.Username = username
	return nil
}

func (r *fakeAccountRepo) UpdateProviderToken(ctx context.Context, id uint, accessToken string, expiresAt *time.Time, claims datatypes.JSON) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.AccessToken = accessToken
	a.TokenExpiresAt = expiresAt
	a.ProviderClaims = claims
	return nil
}

type fakeRefreshTokenRepo struct{ s *fakeStore }

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = r.s.allocID()
	token.CreatedAt = time.Now()
	stored := *token
	r.s.refreshTokens[token.ID] = &stored
	return nil
}

func (r *fakeRefreshTokenRepo) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.refreshTokens {
		if t.Token == token {
			copied := *t
			if u, ok := r.s.users[t.UserID]; ok {
				copied.User = *r.s.userWithRole(u)
			}
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(ctx context.Context, id uint, reason, replacedByToken string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.refreshTokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	t.IsRevoked = true
	t.RevokedAt = &now
	t.RevokedReason = reason
	t.ReplacedByToken = replacedByToken
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllActiveForUser(ctx context.Context, userID uint, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, t := range r.s.refreshTokens {
		if t.UserID == userID && !t.IsRevoked && t.ExpiresAt.After(now) {
			t.IsRevoked = true
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) CountActiveForUser(ctx context.Context, userID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	var count int64
	for _, t := range r.s.refreshTokens {
		if t.UserID == userID && !t.IsRevoked && t.ExpiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

type fakeOtpTokenRepo struct{ s *fakeStore }

func (r *fakeOtpTokenRepo) Create(ctx context.Context, token *model.OtpToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = r.s.allocID()
	token.CreatedAt = time.Now()
	stored := *token
	r.s.otpTokens[token.ID] = &stored
	return nil
}

func (r *fakeOtpTokenRepo) GetActiveByUser(ctx context.Context, userID uint, purpose string) (*model.OtpToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	var latest *model.OtpToken
	for _, t := range r.s.otpTokens {
		if t.UserID != userID || t.Purpose != purpose {
			continue
		}
		if t.UsedAt != nil || !t.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || t.ID > latest.ID {
			latest = t
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeOtpTokenRepo) DeleteActiveForUser(ctx context.Context, userID uint, purpose string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for id, t := range r.s.otpTokens {
		if t.UserID == userID && t.Purpose == purpose && t.UsedAt == nil && t.ExpiresAt.After(now) {
			delete(r.s.otpTokens, id)
		}
	}
	return nil
}

func (r *fakeOtpTokenRepo) DeleteAllForUser(ctx context.Context, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.otpTokens {
		if t.UserID == userID {
			delete(r.s.otpTokens, id)
		}
	}
	return nil
}

func (r *fakeOtpTokenRepo) MarkUsed(ctx context.Context, id uint, usedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.otpTokens[id]
	if !ok || t.UsedAt != nil {
		return gorm.ErrRecordNotFound
	}
	t.UsedAt = &usedAt
	return nil
}

func (r *fakeOtpTokenRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.otpTokens[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.otpTokens, id)
	return nil
}
