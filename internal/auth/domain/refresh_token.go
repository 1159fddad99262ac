package domain

import "time"

// RefreshToken is one generation of a rotation family. The raw token is never
// stored; records are keyed by its sha256 hash. All generations descending
// from one login share a family id and a session id, so a theft response can
// kill the whole family with a single set-based revoke.
type RefreshToken struct {
	ID                string
	UserID            string
	TokenHash         string
	FamilyID          string
	Generation        int
	SessionID         string
	DeviceFingerprint string
	IPAddress         string
	UserAgent         string
	ExpiresAt         time.Time
	Revoked           bool
	RevokedAt         *time.Time
	CreatedAt         time.Time
}

// Expired reports whether the record has passed its expiry at now.
func (rt *RefreshToken) Expired(now time.Time) bool {
	return now.After(rt.ExpiresAt)
}
