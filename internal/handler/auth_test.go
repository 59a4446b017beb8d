package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-platform/auth-service/internal/dto"
	apperrors "github.com/lumina-platform/auth-service/internal/errors"
	"github.com/lumina-platform/auth-service/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterCustomValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubAuthService struct {
	loginResp   *dto.LoginResponse
	loginErr    error
	googleResp  *dto.LoginResponse
	googleErr   error
	refreshResp *dto.LoginResponse
	refreshErr  error
}

func (s *stubAuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	return s.loginResp, s.loginErr
}

func (s *stubAuthService) GoogleLogin(ctx context.Context, req dto.GoogleLoginRequest) (*dto.LoginResponse, error) {
	return s.googleResp, s.googleErr
}

func (s *stubAuthService) Refresh(ctx context.Context, req dto.RefreshTokenRequest) (*dto.LoginResponse, error) {
	return s.refreshResp, s.refreshErr
}

type stubRegistration struct {
	sendResp   *dto.MessageResponse
	sendErr    error
	verifyResp *dto.RegistrationResponse
	verifyErr  error
	resendResp *dto.MessageResponse
	resendErr  error
}

func (s *stubRegistration) SendOtp(ctx context.Context, req dto.SendRegistrationOtpRequest) (*dto.MessageResponse, error) {
	return s.sendResp, s.sendErr
}

func (s *stubRegistration) Verify(ctx context.Context, req dto.VerifyRegistrationRequest) (*dto.RegistrationResponse, error) {
	return s.verifyResp, s.verifyErr
}

func (s *stubRegistration) ResendOtp(ctx context.Context, req dto.ResendRegistrationOtpRequest) (*dto.MessageResponse, error) {
	return s.resendResp, s.resendErr
}

func performJSON(t *testing.T, handler gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/test", handler)

	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestLoginHandlerSuccess(t *testing.T) {
	auth := &stubAuthService{loginResp: &dto.LoginResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
		User:         dto.AuthUser{ID: "1", Username: "alice"},
	}}
	h := NewAuthHandler(auth, &stubRegistration{})

	recorder := performJSON(t, h.Login, dto.LoginRequest{Username: "alice", Password: "Password1"})

	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "access", body["access_token"])
	assert.Equal(t, "refresh", body["refresh_token"])
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{loginErr: apperrors.ErrInvalidCredentials}, &stubRegistration{})

	recorder := performJSON(t, h.Login, dto.LoginRequest{Username: "alice", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Invalid username or password", body["message"])
}

func TestLoginHandlerMissingFields(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, &stubRegistration{})

	recorder := performJSON(t, h.Login, map[string]string{"username": "alice"})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Invalid request format", body["message"])
}

func TestGoogleLoginHandlerNotConfigured(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{googleErr: apperrors.ServerError("Google login is not configured")}, &stubRegistration{})

	recorder := performJSON(t, h.GoogleLogin, dto.GoogleLoginRequest{Token: "t"})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Google login is not configured", body["message"])
}

func TestRefreshHandlerRevokedToken(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{refreshErr: apperrors.ErrRefreshTokenRevoked}, &stubRegistration{})

	recorder := performJSON(t, h.RefreshToken, dto.RefreshTokenRequest{RefreshToken: "old"})

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Refresh token has been revoked", body["message"])
}

func TestSendRegistrationOtpHandler(t *testing.T) {
	reg := &stubRegistration{sendResp: &dto.MessageResponse{Message: "OTP has been sent to your email"}}
	h := NewAuthHandler(&stubAuthService{}, reg)

	recorder := performJSON(t, h.SendRegistrationOtp, dto.SendRegistrationOtpRequest{
		Email:    "alice@example.com",
		Username: "alice",
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "OTP has been sent to your email", body["message"])
}

func TestSendRegistrationOtpHandlerConflict(t *testing.T) {
	reg := &stubRegistration{sendErr: apperrors.ErrEmailExists}
	h := NewAuthHandler(&stubAuthService{}, reg)

	recorder := performJSON(t, h.SendRegistrationOtp, dto.SendRegistrationOtpRequest{
		Email:    "alice@example.com",
		Username: "alice",
	})

	assert.Equal(t, http.StatusConflict, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Email already exists", body["message"])
}

func TestVerifyRegistrationHandlerCreated(t *testing.T) {
	reg := &stubRegistration{verifyResp: &dto.RegistrationResponse{
		Message:     "Registration successful",
		AccessToken: "access",
		User:        dto.AuthUser{Username: "alice"},
	}}
	h := NewAuthHandler(&stubAuthService{}, reg)

	recorder := performJSON(t, h.VerifyRegistration, dto.VerifyRegistrationRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Name:     "Alice",
		Password: "Password1",
		OtpCode:  "123456",
	})

	assert.Equal(t, http.StatusCreated, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Registration successful", body["message"])
	assert.Equal(t, "access", body["access_token"])
}

func TestResendRegistrationOtpHandlerNotFound(t *testing.T) {
	reg := &stubRegistration{resendErr: apperrors.NotFound("No pending registration found for this email")}
	h := NewAuthHandler(&stubAuthService{}, reg)

	recorder := performJSON(t, h.ResendRegistrationOtp, dto.ResendRegistrationOtpRequest{Email: "nobody@example.com"})

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "No pending registration found for this email", body["message"])
}
