package constant

import "time"

// Token types embedded in the tokenType claim.
const (
	TokenTypeAccess  = "ACCESS"
	TokenTypeRefresh = "REFRESH"
)

// Credential lockout policy.
const (
	MaxFailedLoginAttempts = 5
	LockoutDuration        = 30 * time.Minute
)

// OTP policy.
const (
	OtpLength        = 6
	OtpExpiry        = 5 * time.Minute
	OtpMaxAttempts   = 5
	OtpSendLimit     = 3
	OtpSendWindow    = 15 * time.Minute
	PendingLoginTTL  = 15 * time.Minute
)

// Login rate limits, applied before credentials are checked.
const (
	LoginIPLimit     = 10
	LoginEmailLimit  = 5
	LoginRateWindow  = 15 * time.Minute
)

// Default token lifetimes, overridable from config.
const (
	DefaultAccessTokenExpiryMin  = 15
	DefaultRefreshTokenExpiryDay = 7
)

// Ephemeral store key prefixes.
const (
	KeyPrefixPendingLogin = "pending:login:"
	KeyPrefixOtpAttempt   = "otp:attempt:"
	KeyPrefixBlacklistJti = "blacklist:jti:"
	KeyPrefixRateLogin    = "rate:login:"
	KeyPrefixRateOtpSend  = "rate:otp:send:"
)
