package domain

import "time"

// Audit actions recorded by the session flows.
const (
	AuditActionRegister      = "REGISTER"
	AuditActionEmailVerified = "EMAIL_VERIFIED"
	AuditActionLogin         = "LOGIN"
	AuditActionLogout        = "LOGOUT"
	AuditActionAccountLocked = "ACCOUNT_LOCKED"
	AuditActionDeviceTrusted = "DEVICE_TRUSTED"
	AuditActionTokenReuse    = "REFRESH_TOKEN_REUSE"
	AuditActionForceLogout   = "FORCE_LOGOUT"
)

type AuditEvent struct {
	ID         string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Success    bool
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}
