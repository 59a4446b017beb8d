package dto

// LoginRequest carries a username-or-email identifier plus password.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

type SendRegistrationOtpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=20"`
}

type VerifyRegistrationRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=20"`
	Name     string `json:"name" binding:"required,max=50"`
	Password string `json:"password" binding:"required,strongpassword"`
	OtpCode  string `json:"otp_code" binding:"required,numeric"`
}

type ResendRegistrationOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyResetCodeRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OtpCode string `json:"otp_code" binding:"required,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OtpCode     string `json:"otp_code" binding:"required,numeric"`
	NewPassword string `json:"new_password" binding:"required,strongpassword"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthUser is the public view of a user embedded in token responses.
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// LoginResponse is shared by Login, GoogleLogin and RefreshToken.
type LoginResponse struct {
	AccessToken      string   `json:"access_token"`
	RefreshToken     string   `json:"refresh_token"`
	ExpiresIn        int      `json:"expires_in"`         // access token expiry in seconds
	RefreshExpiresIn int      `json:"refresh_expires_in"` // refresh token expiry in seconds
	User             AuthUser `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RegistrationResponse is returned by VerifyRegistration: the caller is
// logged in immediately after activation.
type RegistrationResponse struct {
	Message          string   `json:"message"`
	AccessToken      string   `json:"access_token"`
	RefreshToken     string   `json:"refresh_token"`
	ExpiresIn        int      `json:"expires_in"`
	RefreshExpiresIn int      `json:"refresh_expires_in"`
	User             AuthUser `json:"user"`
}
