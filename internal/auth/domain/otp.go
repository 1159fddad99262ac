package domain

import "time"

// OTP purposes. At most one unused, unexpired challenge exists per
// (user, purpose); issuing a new one invalidates the rest.
const (
	OtpPurposeEmailVerification = "EMAIL_VERIFICATION"
	OtpPurposeNewDeviceLogin    = "NEW_DEVICE_LOGIN"
	OtpPurposeTransaction       = "TRANSACTION"
	OtpPurposePasswordReset     = "PASSWORD_RESET"
)

// OtpChallenge stores only the sha256 hash of the code, never the raw code.
type OtpChallenge struct {
	ID        string
	UserID    string
	CodeHash  string
	Purpose   string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	IPAddress string
	CreatedAt time.Time
}
