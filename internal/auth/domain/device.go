package domain

import (
	"strings"
	"time"
)

// Device is one (user, fingerprint) pair. A device is created untrusted on
// first sight; the trusted flag flips only after a successful new-device OTP.
type Device struct {
	ID            string
	UserID        string
	Fingerprint   string
	Name          string
	Type          string
	Trusted       bool
	TrustedAt     *time.Time
	LastIPAddress string
	LastSeenAt    time.Time
	LoginCount    int
	CreatedAt     time.Time
}

// ParseDeviceName derives a display name from a user-agent string.
func ParseDeviceName(userAgent string) string {
	switch {
	case userAgent == "":
		return "Unknown"
	case strings.Contains(userAgent, "iPhone"):
		return "Safari on iPhone"
	case strings.Contains(userAgent, "Android"):
		return "Chrome on Android"
	case strings.Contains(userAgent, "Windows"):
		return "Chrome on Windows"
	case strings.Contains(userAgent, "Macintosh"):
		return "Safari on Mac"
	default:
		return "Unknown Device"
	}
}

// ParseDeviceType buckets a user-agent into MOBILE, TABLET or DESKTOP.
func ParseDeviceType(userAgent string) string {
	switch {
	case userAgent == "":
		return "UNKNOWN"
	case strings.Contains(userAgent, "Mobile"),
		strings.Contains(userAgent, "iPhone"),
		strings.Contains(userAgent, "Android"):
		return "MOBILE"
	case strings.Contains(userAgent, "iPad"), strings.Contains(userAgent, "Tablet"):
		return "TABLET"
	default:
		return "DESKTOP"
	}
}
