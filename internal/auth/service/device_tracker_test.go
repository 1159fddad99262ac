package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/service"
	"github.com/NeuroDev204/Neuro-bank/internal/mocks"
)

func TestDeviceCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDevices := mocks.NewMockDeviceRepository(ctrl)
	ctx := context.Background()
	userID := "user-123"
	agent := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"

	t.Run("absent fingerprint skips the check by default", func(t *testing.T) {
		tracker := service.NewDeviceTracker(mockDevices, false)

		decision, err := tracker.Check(ctx, userID, "", agent, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, decision.Checked)
	})

	t.Run("absent fingerprint forces the challenge when required", func(t *testing.T) {
		tracker := service.NewDeviceTracker(mockDevices, true)

		decision, err := tracker.Check(ctx, userID, "", agent, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, decision.Checked)
		assert.False(t, decision.Trusted)
	})

	t.Run("unseen device is recorded untrusted", func(t *testing.T) {
		tracker := service.NewDeviceTracker(mockDevices, false)

		mockDevices.EXPECT().GetByUserAndFingerprint(gomock.Any(), userID, "fp-new").Return(nil, nil)
		mockDevices.EXPECT().Create(gomock.Any(), gomock.Any()).Do(func(_ context.Context, d *domain.Device) {
			assert.Equal(t, "fp-new", d.Fingerprint)
			assert.False(t, d.Trusted)
			assert.Equal(t, "Safari on iPhone", d.Name)
			assert.Equal(t, "MOBILE", d.Type)
		}).Return(nil)

		decision, err := tracker.Check(ctx, userID, "fp-new", agent, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, decision.Checked)
		assert.False(t, decision.Known)
		assert.False(t, decision.Trusted)
	})

	t.Run("known untrusted device", func(t *testing.T) {
		tracker := service.NewDeviceTracker(mockDevices, false)

		mockDevices.EXPECT().GetByUserAndFingerprint(gomock.Any(), userID, "fp-known").
			Return(&domain.Device{Fingerprint: "fp-known", Trusted: false}, nil)

		decision, err := tracker.Check(ctx, userID, "fp-known", agent, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, decision.Known)
		assert.False(t, decision.Trusted)
	})

	t.Run("trusted device", func(t *testing.T) {
		tracker := service.NewDeviceTracker(mockDevices, false)

		mockDevices.EXPECT().GetByUserAndFingerprint(gomock.Any(), userID, "fp-trusted").
			Return(&domain.Device{Fingerprint: "fp-trusted", Trusted: true}, nil)

		decision, err := tracker.Check(ctx, userID, "fp-trusted", agent, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, decision.Trusted)
	})
}

func TestRecordSeen(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDevices := mocks.NewMockDeviceRepository(ctrl)
	tracker := service.NewDeviceTracker(mockDevices, false)
	ctx := context.Background()

	t.Run("empty fingerprint is a no-op", func(t *testing.T) {
		err := tracker.RecordSeen(ctx, "user-123", "", "10.0.0.1")
		assert.NoError(t, err)
	})

	t.Run("bumps last seen", func(t *testing.T) {
		mockDevices.EXPECT().RecordSeen(gomock.Any(), "user-123", "fp-1", "10.0.0.1", gomock.Any()).Return(nil)

		err := tracker.RecordSeen(ctx, "user-123", "fp-1", "10.0.0.1")
		assert.NoError(t, err)
	})
}

func TestParseDevice(t *testing.T) {
	tests := []struct {
		name     string
		agent    string
		wantName string
		wantType string
	}{
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", "Safari on iPhone", "MOBILE"},
		{"android", "Mozilla/5.0 (Linux; Android 14; Pixel 8)", "Chrome on Android", "MOBILE"},
		{"windows", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", "Chrome on Windows", "DESKTOP"},
		{"mac", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)", "Safari on Mac", "DESKTOP"},
		{"unrecognized", "curl/8.0", "Unknown Device", "DESKTOP"},
		{"empty", "", "Unknown", "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, domain.ParseDeviceName(tt.agent))
			assert.Equal(t, tt.wantType, domain.ParseDeviceType(tt.agent))
		})
	}
}
