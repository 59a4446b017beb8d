package repository

import (
	"context"

	"gorm.io/gorm"
)

// gormStore is the PostgreSQL-backed Store. Transaction hands the callback a
// store bound to the transaction's *gorm.DB, so repositories obtained inside
// the callback all share one transaction.
type gormStore struct {
	db *gorm.DB
}

// NewStore wraps a gorm connection in the Store interface.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return &UserGormRepository{db: s.db}
}

func (s *gormStore) Accounts() AccountRepository {
	return &AccountGormRepository{db: s.db}
}

func (s *gormStore) RefreshTokens() RefreshTokenRepository {
	return &RefreshTokenGormRepository{db: s.db}
}

func (s *gormStore) OtpTokens() OtpTokenRepository {
	return &OtpTokenGormRepository{db: s.db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
