package domain

//go:generate mockgen -destination=../../mocks/mock_repositories.go -package=mocks github.com/NeuroDev204/Neuro-bank/internal/auth/domain UserRepository,CredentialRepository,DeviceRepository,OtpRepository,RefreshTokenRepository,AuditRepository
//go:generate mockgen -destination=../../mocks/mock_collaborators.go -package=mocks github.com/NeuroDev204/Neuro-bank/internal/auth/domain EphemeralStore,RevocationRegistry,RateLimiter,Notifier,AuditSink

import (
	"context"
	"time"
)

type UserRepository interface {
	// GetByEmail returns (nil, nil) when no user exists for the address.
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateStatus(ctx context.Context, id string, status UserStatus) error
}

type CredentialRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Credential, error)
	Create(ctx context.Context, credential *Credential) error
	// RecordFailure increments the failed-attempt counter and, when the new
	// count reaches threshold, sets the lock in the same statement. It returns
	// the counter value after the increment.
	RecordFailure(ctx context.Context, userID string, threshold int, lockFor time.Duration) (int, error)
	// RecordSuccess resets the counter, clears the lock and stamps the login.
	RecordSuccess(ctx context.Context, userID, ip string) error
}

type DeviceRepository interface {
	// GetByUserAndFingerprint returns (nil, nil) when the device is unseen.
	GetByUserAndFingerprint(ctx context.Context, userID, fingerprint string) (*Device, error)
	Create(ctx context.Context, device *Device) error
	MarkTrusted(ctx context.Context, userID, fingerprint string, at time.Time) error
	// RecordSeen bumps last-seen, last IP and the login count.
	RecordSeen(ctx context.Context, userID, fingerprint, ip string, at time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*Device, error)
}

type OtpRepository interface {
	// InvalidateActive marks every unused challenge for (user, purpose) used.
	InvalidateActive(ctx context.Context, userID, purpose string, at time.Time) error
	Create(ctx context.Context, otp *OtpChallenge) error
	// FindValid returns (nil, nil) unless an unused, unexpired challenge with
	// the given code hash exists.
	FindValid(ctx context.Context, userID, purpose, codeHash string, now time.Time) (*OtpChallenge, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
}

type RefreshTokenRepository interface {
	Store(ctx context.Context, token *RefreshToken) error
	// GetByHash returns (nil, nil) when no record matches the hash.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// MarkRevokedIfActive revokes the record only if it is still active and
	// reports whether this caller won the update. Two concurrent rotations of
	// the same token resolve here: exactly one sees true.
	MarkRevokedIfActive(ctx context.Context, id string, at time.Time) (bool, error)
	RevokeFamily(ctx context.Context, familyID string, at time.Time) error
	RevokeAllByUser(ctx context.Context, userID string, at time.Time) error
	ListActiveByUser(ctx context.Context, userID string) ([]*RefreshToken, error)
	DeleteExpiredAndRevoked(ctx context.Context, now time.Time) (int64, error)
}

type AuditRepository interface {
	Insert(ctx context.Context, event *AuditEvent) error
}

// EphemeralStore is short-lived keyed state: pending-login markers, OTP
// attempt counters and rate-limit counters. Increment sets the TTL on the
// first increment only; later increments extend the count, not the window.
type EphemeralStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports (value, true, nil) on a hit and ("", false, nil) on a miss.
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RevocationRegistry is the access-token denylist. Entries carry a TTL no
// longer than the token's remaining validity, so storage is self-bounding.
type RevocationRegistry interface {
	Deny(ctx context.Context, jti string, ttl time.Duration) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}

// RateLimiter fails with ErrTooManyRequests once a key exceeds its limit
// inside the window.
type RateLimiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) error
}

// Notifier delivers one-time codes out of band.
type Notifier interface {
	SendOtp(ctx context.Context, email, name, code, purpose string) error
}

// AuditSink records events without blocking the request path.
type AuditSink interface {
	Record(event AuditEvent)
}
