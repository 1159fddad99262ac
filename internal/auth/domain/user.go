package domain

import "time"

type UserStatus string

const (
	StatusActive              UserStatus = "ACTIVE"
	StatusSuspended           UserStatus = "SUSPENDED"
	StatusPendingVerification UserStatus = "PENDING_VERIFICATION"
)

type User struct {
	ID        string
	FullName  string
	Email     string
	Phone     string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credential holds the secrets and lockout state for one user. It is mutated
// only through CredentialRepository so the failed-attempt counter and lock are
// always updated in a single statement.
type Credential struct {
	UserID              string
	PasswordHash        string
	PinHash             string
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	LastLoginIP         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Locked reports whether the credential is locked out at the given instant.
func (c *Credential) Locked(now time.Time) bool {
	return c.LockedUntil != nil && c.LockedUntil.After(now)
}
