package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
	"github.com/NeuroDev204/Neuro-bank/internal/metrics"
	"github.com/NeuroDev204/Neuro-bank/internal/ratelimit"
	"github.com/NeuroDev204/Neuro-bank/pkg/constant"
)

// OtpService issues and verifies one-time codes. Only the sha256 hash of a
// code is stored; at most one unused, unexpired challenge exists per
// (user, purpose).
type OtpService struct {
	otps      domain.OtpRepository
	ephemeral domain.EphemeralStore
	limiter   domain.RateLimiter
	notifier  domain.Notifier
	logger    *slog.Logger
}

func NewOtpService(otps domain.OtpRepository, ephemeral domain.EphemeralStore,
	limiter domain.RateLimiter, notifier domain.Notifier, logger *slog.Logger) *OtpService {
	return &OtpService{
		otps:      otps,
		ephemeral: ephemeral,
		limiter:   limiter,
		notifier:  notifier,
		logger:    logger,
	}
}

// Issue invalidates any still-active challenge for (user, purpose), persists
// a fresh hashed code with a five-minute expiry and hands the raw code to the
// notifier. Delivery is rate limited per (user, purpose).
func (s *OtpService) Issue(ctx context.Context, user *domain.User, purpose, ip string) error {
	if err := s.limiter.Check(ctx, ratelimit.OtpSendKey(user.ID, purpose), constant.OtpSendLimit, constant.OtpSendWindow); err != nil {
		return err
	}

	now := time.Now()
	if err := s.otps.InvalidateActive(ctx, user.ID, purpose, now); err != nil {
		return fmt.Errorf("failed to invalidate previous challenges: %w", err)
	}

	code, err := generateOtpCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	challenge := &domain.OtpChallenge{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CodeHash:  HashToken(code),
		Purpose:   purpose,
		ExpiresAt: now.Add(constant.OtpExpiry),
		IPAddress: ip,
		CreatedAt: now,
	}
	if err := s.otps.Create(ctx, challenge); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}

	if err := s.notifier.SendOtp(ctx, user.Email, user.FullName, code, purpose); err != nil {
		return err
	}

	metrics.OtpIssuedTotal.WithLabelValues(purpose).Inc()
	s.logger.Info("otp issued", slog.String("user_id", user.ID), slog.String("purpose", purpose))

	return nil
}

// Verify checks the code against the active challenge. The attempt counter
// lives in the ephemeral store with the same TTL as the challenge; past five
// attempts every code is rejected. A used, expired, absent or wrong code all
// produce the same failure, revealing nothing about challenge state.
func (s *OtpService) Verify(ctx context.Context, user *domain.User, purpose, code string) error {
	attemptKey := constant.KeyPrefixOtpAttempt + user.ID + ":" + purpose

	attempts, err := s.ephemeral.Increment(ctx, attemptKey, constant.OtpExpiry)
	if err != nil {
		return err
	}
	if attempts > constant.OtpMaxAttempts {
		metrics.OtpVerifiedTotal.WithLabelValues("failure").Inc()
		return autherror.ErrTooManyAttempts
	}

	now := time.Now()

	challenge, err := s.otps.FindValid(ctx, user.ID, purpose, HashToken(code), now)
	if err != nil {
		return err
	}
	if challenge == nil {
		metrics.OtpVerifiedTotal.WithLabelValues("failure").Inc()
		return autherror.ErrInvalidOrExpiredOtp
	}

	if err := s.otps.MarkUsed(ctx, challenge.ID, now); err != nil {
		return fmt.Errorf("failed to mark challenge used: %w", err)
	}

	if err := s.ephemeral.Delete(ctx, attemptKey); err != nil {
		s.logger.Warn("failed to clear otp attempt counter", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	metrics.OtpVerifiedTotal.WithLabelValues("success").Inc()

	return nil
}

// generateOtpCode draws a uniform six-digit code from crypto/rand.
func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
