package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors surfaced to callers. Credential and OTP failures share a
// generic message so a caller cannot tell an unknown email from a wrong
// password, or a wrong code from an expired one.
var (
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrEmailAlreadyInUse         = errors.New("email already in use")
	ErrUserNotFound              = errors.New("user not found")
	ErrAccountAlreadyVerified    = errors.New("account already verified")
	ErrInvalidOrExpiredOtp       = errors.New("invalid or expired code")
	ErrTooManyAttempts           = errors.New("too many failed attempts, please request a new code")
	ErrTooManyRequests           = errors.New("too many requests, please try again later")
	ErrInvalidToken              = errors.New("invalid token")
	ErrInvalidTokenType          = errors.New("invalid token type")
	ErrTokenRevoked              = errors.New("token revoked")
	ErrRefreshTokenNotFound      = errors.New("refresh token not found")
	ErrRefreshTokenExpired       = errors.New("refresh token expired")
	ErrDeviceFingerprintMismatch = errors.New("device mismatch detected")
	ErrSecurityViolation         = errors.New("security violation, please login again")
	ErrPendingLoginExpired       = errors.New("session expired, please login again")
)

// AccountLockedError is returned while a credential lockout is in effect.
// Remaining is rounded up so the caller never under-reports the wait.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	minutes := int(e.Remaining.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("account locked, try again in %d minutes", minutes)
}

// AccountNotActiveError rejects logins on suspended or unverified accounts
// with a reason the handler maps to a distinct response.
type AccountNotActiveError struct {
	Status string
	Reason string
}

func (e *AccountNotActiveError) Error() string {
	return e.Reason
}

// IsAccountLocked reports whether err carries a lockout, returning it when so.
func IsAccountLocked(err error) (*AccountLockedError, bool) {
	var locked *AccountLockedError
	if errors.As(err, &locked) {
		return locked, true
	}
	return nil, false
}

// IsAccountNotActive reports whether err is an account-status rejection.
func IsAccountNotActive(err error) (*AccountNotActiveError, bool) {
	var notActive *AccountNotActiveError
	if errors.As(err, &notActive) {
		return notActive, true
	}
	return nil, false
}
