package ratelimit_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
	"github.com/NeuroDev204/Neuro-bank/internal/mocks"
	"github.com/NeuroDev204/Neuro-bank/internal/ratelimit"
)

func TestCheck(t *testing.T) {
	key := "rate:login:ip:10.0.0.1"
	window := time.Minute

	t.Run("under the limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockEphemeralStore(ctrl)
		store.EXPECT().Increment(gomock.Any(), key, window).Return(int64(3), nil)

		limiter := ratelimit.NewLimiter(store)
		require.NoError(t, limiter.Check(context.Background(), key, 5, window))
	})

	t.Run("at the limit still allowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockEphemeralStore(ctrl)
		store.EXPECT().Increment(gomock.Any(), key, window).Return(int64(5), nil)

		limiter := ratelimit.NewLimiter(store)
		require.NoError(t, limiter.Check(context.Background(), key, 5, window))
	})

	t.Run("over the limit rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockEphemeralStore(ctrl)
		store.EXPECT().Increment(gomock.Any(), key, window).Return(int64(6), nil)

		limiter := ratelimit.NewLimiter(store)
		err := limiter.Check(context.Background(), key, 5, window)
		assert.ErrorIs(t, err, autherror.ErrTooManyRequests)
	})

	t.Run("store failure fails closed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockEphemeralStore(ctrl)
		store.EXPECT().Increment(gomock.Any(), key, window).Return(int64(0), assert.AnError)

		limiter := ratelimit.NewLimiter(store)
		assert.Error(t, limiter.Check(context.Background(), key, 5, window))
	})
}

func TestKeyBuilders(t *testing.T) {
	t.Run("ip key is literal", func(t *testing.T) {
		assert.Equal(t, ratelimit.LoginIPKey("10.0.0.1"), ratelimit.LoginIPKey("10.0.0.1"))
		assert.Contains(t, ratelimit.LoginIPKey("10.0.0.1"), "10.0.0.1")
	})

	t.Run("email key never carries the address", func(t *testing.T) {
		key := ratelimit.LoginEmailKey("test@example.com")
		assert.NotContains(t, key, "test@example.com")
		assert.Equal(t, key, ratelimit.LoginEmailKey("test@example.com"))
		assert.NotEqual(t, key, ratelimit.LoginEmailKey("other@example.com"))

		// suffix is a sha256 hex digest
		parts := strings.Split(key, ":")
		assert.Len(t, parts[len(parts)-1], 64)
	})

	t.Run("otp send key separates purposes", func(t *testing.T) {
		assert.NotEqual(t,
			ratelimit.OtpSendKey("user-1", "EMAIL_VERIFICATION"),
			ratelimit.OtpSendKey("user-1", "NEW_DEVICE_LOGIN"),
		)
	})
}
