package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
)

// DeviceDecision is the trust verdict for one login's fingerprint. Checked is
// false when the client sent no fingerprint and the check was skipped.
type DeviceDecision struct {
	Checked bool
	Known   bool
	Trusted bool
}

// DeviceTracker records device sightings and answers trust checks. Trust is
// granted only through MarkTrusted, after a successful new-device challenge.
type DeviceTracker struct {
	devices domain.DeviceRepository
	// requireFingerprint turns an absent fingerprint from "skip the check"
	// into "treat as untrusted", forcing the challenge path.
	requireFingerprint bool
}

func NewDeviceTracker(devices domain.DeviceRepository, requireFingerprint bool) *DeviceTracker {
	return &DeviceTracker{devices: devices, requireFingerprint: requireFingerprint}
}

// Check looks up the (user, fingerprint) pair, creating an untrusted record
// on first sight. Unknown and untrusted devices get the same verdict.
func (t *DeviceTracker) Check(ctx context.Context, userID, fingerprint, userAgent, ip string) (DeviceDecision, error) {
	if fingerprint == "" {
		if t.requireFingerprint {
			return DeviceDecision{Checked: true}, nil
		}

		return DeviceDecision{}, nil
	}

	device, err := t.devices.GetByUserAndFingerprint(ctx, userID, fingerprint)
	if err != nil {
		return DeviceDecision{}, err
	}

	if device == nil {
		now := time.Now()
		device = &domain.Device{
			ID:            uuid.NewString(),
			UserID:        userID,
			Fingerprint:   fingerprint,
			Name:          domain.ParseDeviceName(userAgent),
			Type:          domain.ParseDeviceType(userAgent),
			Trusted:       false,
			LastIPAddress: ip,
			LastSeenAt:    now,
			CreatedAt:     now,
		}
		if err := t.devices.Create(ctx, device); err != nil {
			return DeviceDecision{}, fmt.Errorf("failed to record new device: %w", err)
		}

		return DeviceDecision{Checked: true}, nil
	}

	return DeviceDecision{Checked: true, Known: true, Trusted: device.Trusted}, nil
}

// MarkTrusted flips the trusted flag. Called only after the new-device OTP
// for this fingerprint verified.
func (t *DeviceTracker) MarkTrusted(ctx context.Context, userID, fingerprint string) error {
	if err := t.devices.MarkTrusted(ctx, userID, fingerprint, time.Now()); err != nil {
		return fmt.Errorf("failed to mark device trusted: %w", err)
	}

	return nil
}

// RecordSeen bumps last-seen state after a successful token issue.
func (t *DeviceTracker) RecordSeen(ctx context.Context, userID, fingerprint, ip string) error {
	if fingerprint == "" {
		return nil
	}

	return t.devices.RecordSeen(ctx, userID, fingerprint, ip, time.Now())
}
