package utils

import "time"

// Application Constants
const (
	AppName    = "OTTBot"
	AppVersion = "1.0.0"

	// Default values
	DefaultLanguage = "en"
	DefaultCurrency = "INR"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour
	PasswordMinLength  = 8
	PasswordMaxLength  = 128

	// Payments
	MinPaymentAmount = 1.0
	MaxPaymentAmount = 100000.0

	// File Upload
	MaxScreenshotSize = 5 * 1024 * 1024 // 5MB

	// Rate Limiting
	DefaultRateLimit = 100
	LoginRateLimit   = 5

	// Referral
	ReferralCodePrefix = "REF"
	ReferralCodeLength = 8
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrUserNotFound       = "user not found"
	ErrUserExists         = "user already exists"
	ErrInvalidToken       = "invalid token"
	ErrTokenExpired       = "token expired"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrNotFound           = "not found"
	ErrConflict           = "conflict"
	ErrValidationFailed   = "validation failed"
	ErrFileUploadFailed   = "file upload failed"
	ErrPaymentNotFound    = "payment not found"
	ErrPaymentDecided     = "payment already verified or rejected"
	ErrQuotaExceeded      = "daily extraction quota exceeded"
)

// Cache Keys
const (
	CacheUserPrefix      = "user:"
	CachePaymentPrefix   = "payment:"
	CacheReferralPrefix  = "referral:"
	CacheQuotaPrefix     = "quota:"
	CacheSessionPrefix   = "session:"
	CacheRateLimitPrefix = "rate_limit:"
)

// Event Types
const (
	EventUserRegistered    = "user_registered"
	EventPaymentCreated    = "payment_created"
	EventPaymentVerified   = "payment_verified"
	EventPaymentRejected   = "payment_rejected"
	EventReferralRecorded  = "referral_recorded"
	EventReferralValidated = "referral_validated"
	EventRewardClaimed     = "reward_claimed"
	EventKeysExtracted     = "keys_extracted"
	EventBroadcastSent     = "broadcast_sent"
)

// File Types
var (
	AllowedImageTypes = []string{"jpg", "jpeg", "png", "webp"}
)
