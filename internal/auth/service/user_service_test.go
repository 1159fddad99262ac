package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/dto"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/service"
	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
	"github.com/NeuroDev204/Neuro-bank/internal/mocks"
	"github.com/NeuroDev204/Neuro-bank/internal/ratelimit"
	"github.com/NeuroDev204/Neuro-bank/pkg/constant"
)

type userServiceMocks struct {
	users       *mocks.MockUserRepository
	credentials *mocks.MockCredentialRepository
	otps        *mocks.MockOtpRepository
	ephemeral   *mocks.MockEphemeralStore
	limiter     *mocks.MockRateLimiter
	notifier    *mocks.MockNotifier
	audit       *mocks.MockAuditSink
}

func newUserService(ctrl *gomock.Controller) (*service.UserService, *userServiceMocks) {
	m := &userServiceMocks{
		users:       mocks.NewMockUserRepository(ctrl),
		credentials: mocks.NewMockCredentialRepository(ctrl),
		otps:        mocks.NewMockOtpRepository(ctrl),
		ephemeral:   mocks.NewMockEphemeralStore(ctrl),
		limiter:     mocks.NewMockRateLimiter(ctrl),
		notifier:    mocks.NewMockNotifier(ctrl),
		audit:       mocks.NewMockAuditSink(ctrl),
	}
	m.audit.EXPECT().Record(gomock.Any()).AnyTimes()

	otpService := service.NewOtpService(m.otps, m.ephemeral, m.limiter, m.notifier, discardLogger())
	userService := service.NewUserService(m.users, m.credentials, otpService, m.audit)

	return userService, m
}

func TestRegister(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userService, m := newUserService(ctrl)
	ctx := context.Background()

	input := dto.RegisterInput{
		FullName: "Test User",
		Email:    "test@example.com",
		Phone:    "+628123456789",
		Password: "secret-password",
		Pin:      "123456",
	}

	t.Run("success", func(t *testing.T) {
		m.users.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(nil, nil)
		m.users.EXPECT().Create(gomock.Any(), gomock.Any()).Do(func(_ context.Context, u *domain.User) {
			assert.Equal(t, domain.StatusPendingVerification, u.Status)
			assert.Equal(t, input.Email, u.Email)
		}).Return(nil)
		m.credentials.EXPECT().Create(gomock.Any(), gomock.Any()).Do(func(_ context.Context, c *domain.Credential) {
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(input.Password)))
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(c.PinHash), []byte(input.Pin)))
		}).Return(nil)
		m.limiter.EXPECT().
			Check(gomock.Any(), gomock.Any(), constant.OtpSendLimit, constant.OtpSendWindow).
			Return(nil)
		m.otps.EXPECT().InvalidateActive(gomock.Any(), gomock.Any(), domain.OtpPurposeEmailVerification, gomock.Any()).Return(nil)
		m.otps.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		m.notifier.EXPECT().
			SendOtp(gomock.Any(), input.Email, input.FullName, gomock.Any(), domain.OtpPurposeEmailVerification).
			Return(nil)

		user, err := userService.Register(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPendingVerification, user.Status)
	})

	t.Run("duplicate email", func(t *testing.T) {
		m.users.EXPECT().GetByEmail(gomock.Any(), input.Email).
			Return(&domain.User{ID: "existing"}, nil)

		_, err := userService.Register(ctx, input)
		assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
	})

	t.Run("repository error", func(t *testing.T) {
		m.users.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(nil, errors.New("db error"))

		_, err := userService.Register(ctx, input)
		assert.Error(t, err)
	})
}

func TestVerifyEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userService, m := newUserService(ctrl)
	ctx := context.Background()

	user := &domain.User{ID: "user-123", Email: "test@example.com", Status: domain.StatusPendingVerification}
	code := "482910"
	attemptKey := constant.KeyPrefixOtpAttempt + user.ID + ":" + domain.OtpPurposeEmailVerification
	input := dto.VerifyEmailInput{Email: user.Email, Code: code}

	t.Run("success activates the account", func(t *testing.T) {
		m.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
		m.ephemeral.EXPECT().Increment(gomock.Any(), attemptKey, constant.OtpExpiry).Return(int64(1), nil)
		m.otps.EXPECT().
			FindValid(gomock.Any(), user.ID, domain.OtpPurposeEmailVerification, service.HashToken(code), gomock.Any()).
			Return(&domain.OtpChallenge{ID: "otp-1"}, nil)
		m.otps.EXPECT().MarkUsed(gomock.Any(), "otp-1", gomock.Any()).Return(nil)
		m.ephemeral.EXPECT().Delete(gomock.Any(), attemptKey).Return(nil)
		m.users.EXPECT().UpdateStatus(gomock.Any(), user.ID, domain.StatusActive).Return(nil)

		err := userService.VerifyEmail(ctx, input)
		assert.NoError(t, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		m.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(nil, nil)

		err := userService.VerifyEmail(ctx, input)
		assert.ErrorIs(t, err, autherror.ErrUserNotFound)
	})

	t.Run("already verified", func(t *testing.T) {
		active := &domain.User{ID: user.ID, Email: user.Email, Status: domain.StatusActive}
		m.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(active, nil)

		err := userService.VerifyEmail(ctx, input)
		assert.ErrorIs(t, err, autherror.ErrAccountAlreadyVerified)
	})

	t.Run("wrong code leaves the account pending", func(t *testing.T) {
		m.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
		m.ephemeral.EXPECT().Increment(gomock.Any(), attemptKey, constant.OtpExpiry).Return(int64(2), nil)
		m.otps.EXPECT().
			FindValid(gomock.Any(), user.ID, domain.OtpPurposeEmailVerification, service.HashToken("000000"), gomock.Any()).
			Return(nil, nil)

		err := userService.VerifyEmail(ctx, dto.VerifyEmailInput{Email: user.Email, Code: "000000"})
		assert.ErrorIs(t, err, autherror.ErrInvalidOrExpiredOtp)
	})
}

func TestResendOtp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userService, m := newUserService(ctrl)
	ctx := context.Background()

	user := &domain.User{ID: "user-123", Email: "test@example.com", FullName: "Test User", Status: domain.StatusPendingVerification}

	t.Run("success", func(t *testing.T) {
		m.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
		m.limiter.EXPECT().
			Check(gomock.Any(), ratelimit.OtpSendKey(user.ID, domain.OtpPurposeEmailVerification),
				constant.OtpSendLimit, constant.OtpSendWindow).
			Return(nil)
		m.otps.EXPECT().InvalidateActive(gomock.Any(), user.ID, domain.OtpPurposeEmailVerification, gomock.Any()).Return(nil)
		m.otps.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		m.notifier.EXPECT().
			SendOtp(gomock.Any(), user.Email, user.FullName, gomock.Any(), domain.OtpPurposeEmailVerification).
			Return(nil)

		err := userService.ResendOtp(ctx, user.Email)
		assert.NoError(t, err)
	})

	t.Run("rate limited", func(t *testing.T) {
		m.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
		m.limiter.EXPECT().
			Check(gomock.Any(), gomock.Any(), constant.OtpSendLimit, constant.OtpSendWindow).
			Return(autherror.ErrTooManyRequests)

		err := userService.ResendOtp(ctx, user.Email)
		assert.ErrorIs(t, err, autherror.ErrTooManyRequests)
	})

	t.Run("already verified", func(t *testing.T) {
		active := &domain.User{ID: user.ID, Email: user.Email, Status: domain.StatusActive}
		m.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(active, nil)

		err := userService.ResendOtp(ctx, user.Email)
		assert.ErrorIs(t, err, autherror.ErrAccountAlreadyVerified)
	})
}
