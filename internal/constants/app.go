package constants

// Application Information
const (
	AppName    = "Auth Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Auth Providers
const (
	ProviderGoogle = "google"
)

// OTP Purposes
const (
	OtpPurposeRegistration  = "registration"
	OtpPurposePasswordReset = "password_reset"
)

// Refresh Token Revocation Reasons
const (
	RevokedReasonReplaced  = "Replaced by new token"
	RevokedReasonRefreshed = "Token refreshed"
)

// Rate Limit Key Prefix
const (
	RateLimitKeyPrefix = "auth:ratelimit:"
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)
