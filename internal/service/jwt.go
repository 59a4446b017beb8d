package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lumina-platform/auth-service/config"
	"github.com/lumina-platform/auth-service/internal/model"
)

const minSecretLength = 32

// TokenResult holds a freshly signed access token and its lifetime.
type TokenResult struct {
	Token     string
	ExpiresIn int // seconds
	ExpiresAt time.Time
}

// JWTService signs and validates HS256 access tokens and mints opaque
// refresh tokens.
type JWTService struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

func NewJWTService(cfg config.JWTConfig) (*JWTService, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", minSecretLength, len(cfg.Secret))
	}

	return &JWTService{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		accessTTL: cfg.AccessTokenTTL(),
	}, nil
}

// GenerateToken signs an access token for the given user. The role claim
// comes from the preloaded Role association.
func (s *JWTService) GenerateToken(user *model.User) (*TokenResult, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"email": user.Email,
		"name":  user.FullName,
		"role":  user.Role.Name,
		"iss":   s.issuer,
		"aud":   s.audience,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &TokenResult{
		Token:     signed,
		ExpiresIn: int(s.accessTTL.Seconds()),
		ExpiresAt: expiresAt,
	}, nil
}

// GenerateRefreshToken returns 64 bytes of cryptographic randomness,
// URL-safe base64 encoded. The raw string is the ledger key.
func (s *JWTService) GenerateRefreshToken() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// ValidateToken parses and verifies an access token, enforcing the
// signing method, issuer and audience.
func (s *JWTService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
