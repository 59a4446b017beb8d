package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrGoogleNotConfigured is returned when no client ID is set.
	ErrGoogleNotConfigured = errors.New("google verifier not configured")
	// ErrInvalidGoogleToken is returned when the ID token fails verification.
	ErrInvalidGoogleToken = errors.New("invalid google token")
)

// GoogleUserInfo is the identity extracted from a verified Google ID token.
type GoogleUserInfo struct {
	Subject   string
	Email     string
	Name      string
	ExpiresAt *time.Time
	Claims    []byte // raw claim payload, stored alongside the account
}

// GoogleVerifier verifies a Google ID token and extracts the identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleUserInfo, error)
}

const googleTokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// GoogleTokenVerifier validates ID tokens against Google's tokeninfo
// endpoint and checks the audience matches our client ID.
type GoogleTokenVerifier struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

func NewGoogleTokenVerifier(clientID string) *GoogleTokenVerifier {
	return &GoogleTokenVerifier{
		clientID: clientID,
		endpoint: googleTokenInfoEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type tokenInfoResponse struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Audience      string `json:"aud"`
	Expiry        string `json:"exp"`
}

func (v *GoogleTokenVerifier) Verify(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	if v.clientID == "" {
		return nil, ErrGoogleNotConfigured
	}

	endpoint := v.endpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read tokeninfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Google answers 4xx for malformed or expired tokens.
		return nil, ErrInvalidGoogleToken
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if info.Audience != v.clientID {
		return nil, ErrInvalidGoogleToken
	}

	var expiresAt *time.Time
	if info.Expiry != "" {
		if unix, err := strconv.ParseInt(info.Expiry, 10, 64); err == nil {
			t := time.Unix(unix, 0)
			if t.Before(time.Now()) {
				return nil, ErrInvalidGoogleToken
			}
			expiresAt = &t
		}
	}

	return &GoogleUserInfo{
		Subject:   info.Subject,
		Email:     info.Email,
		Name:      info.Name,
		ExpiresAt: expiresAt,
		Claims:    body,
	}, nil
}
