package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
	"github.com/NeuroDev204/Neuro-bank/internal/metrics"
	"github.com/NeuroDev204/Neuro-bank/pkg/constant"
)

// CredentialVerifier checks passwords and enforces the failed-attempt lockout.
// Counter and lock live on the credential row and are mutated through single
// conditional updates, so concurrent failures can under-count by at most one
// but can never over-count or leave the lock inconsistent.
type CredentialVerifier struct {
	users       domain.UserRepository
	credentials domain.CredentialRepository
	audit       domain.AuditSink
	logger      *slog.Logger
}

func NewCredentialVerifier(users domain.UserRepository, credentials domain.CredentialRepository,
	audit domain.AuditSink, logger *slog.Logger) *CredentialVerifier {
	return &CredentialVerifier{
		users:       users,
		credentials: credentials,
		audit:       audit,
		logger:      logger,
	}
}

// Verify resolves the identifier and compares the password. Unknown email and
// wrong password are indistinguishable to the caller. A lockout check happens
// before the comparison and consumes no attempt.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password, ip, userAgent string) (*domain.User, error) {
	user, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrInvalidCredentials
	}

	credential, err := v.credentials.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if credential == nil {
		return nil, autherror.ErrInvalidCredentials
	}

	now := time.Now()
	if credential.Locked(now) {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return nil, &autherror.AccountLockedError{Remaining: credential.LockedUntil.Sub(now)}
	}

	if bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)) != nil {
		if err := v.recordFailure(ctx, user, ip, userAgent); err != nil {
			return nil, err
		}

		metrics.LoginsTotal.WithLabelValues("invalid_credential").Inc()

		return nil, autherror.ErrInvalidCredentials
	}

	return user, nil
}

// RecordSuccess resets the counter and lock and stamps the login. Called by
// the orchestrator once the whole login (including any device challenge)
// has succeeded.
func (v *CredentialVerifier) RecordSuccess(ctx context.Context, userID, ip string) error {
	if err := v.credentials.RecordSuccess(ctx, userID, ip); err != nil {
		return fmt.Errorf("failed to record login success: %w", err)
	}

	return nil
}

func (v *CredentialVerifier) recordFailure(ctx context.Context, user *domain.User, ip, userAgent string) error {
	attempts, err := v.credentials.RecordFailure(ctx, user.ID, constant.MaxFailedLoginAttempts, constant.LockoutDuration)
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	if attempts >= constant.MaxFailedLoginAttempts {
		metrics.LockoutsTotal.Inc()
		v.logger.Warn("account locked after repeated failures", slog.String("user_id", user.ID))
		v.audit.Record(domain.AuditEvent{
			UserID:     user.ID,
			Action:     domain.AuditActionAccountLocked,
			EntityType: "USER",
			EntityID:   user.ID,
			Success:    false,
			IPAddress:  ip,
			UserAgent:  userAgent,
		})
	}

	return nil
}
