// Package metrics exposes Prometheus counters for the session-security flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal counts login attempts by outcome:
	// success, invalid_credential, locked, not_active, challenge, rate_limited.
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurobank",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// LockoutsTotal counts credential lockouts triggered by failed logins.
	LockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "neurobank",
			Subsystem: "auth",
			Name:      "lockouts_total",
			Help:      "Credential lockouts triggered",
		},
	)

	// OtpIssuedTotal counts one-time codes issued by purpose.
	OtpIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurobank",
			Subsystem: "auth",
			Name:      "otp_issued_total",
			Help:      "One-time codes issued by purpose",
		},
		[]string{"purpose"},
	)

	// OtpVerifiedTotal counts OTP verifications by result: success, failure.
	OtpVerifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurobank",
			Subsystem: "auth",
			Name:      "otp_verified_total",
			Help:      "OTP verification attempts by result",
		},
		[]string{"result"},
	)

	// RotationsTotal counts successful refresh-token rotations.
	RotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "neurobank",
			Subsystem: "auth",
			Name:      "refresh_rotations_total",
			Help:      "Successful refresh-token rotations",
		},
	)

	// ReuseDetectedTotal counts refresh-token reuse (theft) detections.
	ReuseDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "neurobank",
			Subsystem: "auth",
			Name:      "refresh_reuse_detected_total",
			Help:      "Refresh-token reuse detections causing family revocation",
		},
	)
)
