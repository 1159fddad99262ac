package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/dto"
	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
	"github.com/NeuroDev204/Neuro-bank/internal/metrics"
	"github.com/NeuroDev204/Neuro-bank/internal/ratelimit"
	"github.com/NeuroDev204/Neuro-bank/pkg/constant"
)

// AuthService composes the credential, device, OTP and token components into
// the login, new-device verification, refresh and logout flows.
type AuthService struct {
	users         domain.UserRepository
	credentials   *CredentialVerifier
	devices       *DeviceTracker
	otp           *OtpService
	tokens        TokenGenerator
	refreshTokens domain.RefreshTokenRepository
	ephemeral     domain.EphemeralStore
	revocations   domain.RevocationRegistry
	limiter       domain.RateLimiter
	audit         domain.AuditSink
	logger        *slog.Logger
}

func NewAuthService(
	users domain.UserRepository,
	credentials *CredentialVerifier,
	devices *DeviceTracker,
	otp *OtpService,
	tokens TokenGenerator,
	refreshTokens domain.RefreshTokenRepository,
	ephemeral domain.EphemeralStore,
	revocations domain.RevocationRegistry,
	limiter domain.RateLimiter,
	audit domain.AuditSink,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		credentials:   credentials,
		devices:       devices,
		otp:           otp,
		tokens:        tokens,
		refreshTokens: refreshTokens,
		ephemeral:     ephemeral,
		revocations:   revocations,
		limiter:       limiter,
		audit:         audit,
		logger:        logger,
	}
}

// Login verifies credentials and either issues a token pair or, for an
// unrecognized device, parks a pending-login marker and triggers a
// new-device OTP challenge.
func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginOutcome, error) {
	if err := s.limiter.Check(ctx, ratelimit.LoginIPKey(input.IPAddress), constant.LoginIPLimit, constant.LoginRateWindow); err != nil {
		metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
		return nil, err
	}
	if err := s.limiter.Check(ctx, ratelimit.LoginEmailKey(input.Email), constant.LoginEmailLimit, constant.LoginRateWindow); err != nil {
		metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
		return nil, err
	}

	user, err := s.credentials.Verify(ctx, input.Email, input.Password, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	switch user.Status {
	case domain.StatusSuspended:
		metrics.LoginsTotal.WithLabelValues("not_active").Inc()
		return nil, &autherror.AccountNotActiveError{
			Status: string(user.Status),
			Reason: "account suspended, please contact support",
		}
	case domain.StatusPendingVerification:
		metrics.LoginsTotal.WithLabelValues("not_active").Inc()
		return nil, &autherror.AccountNotActiveError{
			Status: string(user.Status),
			Reason: "please verify your email first",
		}
	}

	decision, err := s.devices.Check(ctx, user.ID, input.Fingerprint, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	if decision.Checked && !decision.Trusted {
		marker := input.Fingerprint + "|" + input.IPAddress
		if err := s.ephemeral.Set(ctx, constant.KeyPrefixPendingLogin+user.ID, marker, constant.PendingLoginTTL); err != nil {
			return nil, fmt.Errorf("failed to store pending login: %w", err)
		}
		if err := s.otp.Issue(ctx, user, domain.OtpPurposeNewDeviceLogin, input.IPAddress); err != nil {
			return nil, err
		}

		metrics.LoginsTotal.WithLabelValues("challenge").Inc()
		s.logger.Info("new device challenged", slog.String("user_id", user.ID))

		return &dto.LoginOutcome{ChallengeRequired: true, UserID: user.ID}, nil
	}

	if err := s.credentials.RecordSuccess(ctx, user.ID, input.IPAddress); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user, input.Fingerprint, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	return &dto.LoginOutcome{Tokens: tokens}, nil
}

// VerifyNewDevice finishes a challenged login: the OTP confirms the user,
// the pending marker supplies the fingerprint to trust, and tokens are
// issued exactly as on the trusted path.
func (s *AuthService) VerifyNewDevice(ctx context.Context, input dto.VerifyDeviceInput) (*dto.TokenResponse, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	if err := s.otp.Verify(ctx, user, domain.OtpPurposeNewDeviceLogin, input.OtpCode); err != nil {
		return nil, err
	}

	pendingKey := constant.KeyPrefixPendingLogin + user.ID

	marker, found, err := s.ephemeral.Get(ctx, pendingKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, autherror.ErrPendingLoginExpired
	}
	if err := s.ephemeral.Delete(ctx, pendingKey); err != nil {
		s.logger.Warn("failed to clear pending login", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	fingerprint, _, _ := strings.Cut(marker, "|")
	if fingerprint != "" {
		if err := s.devices.MarkTrusted(ctx, user.ID, fingerprint); err != nil {
			return nil, err
		}
		s.audit.Record(domain.AuditEvent{
			UserID:     user.ID,
			Action:     domain.AuditActionDeviceTrusted,
			EntityType: "DEVICE",
			EntityID:   fingerprint,
			Success:    true,
			IPAddress:  input.IPAddress,
			UserAgent:  input.UserAgent,
		})
	}

	if err := s.credentials.RecordSuccess(ctx, user.ID, input.IPAddress); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user, fingerprint, input.IPAddress, input.UserAgent)
}

// Refresh rotates a refresh token: the presented record is revoked and a
// successor at generation+1 takes its place in the same family. Presenting an
// already-revoked record is treated as theft and kills the whole family.
func (s *AuthService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	claims, err := s.tokens.Parse(input.RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != constant.TokenTypeRefresh {
		return nil, autherror.ErrInvalidTokenType
	}

	if input.Fingerprint != "" && input.Fingerprint != claims.DeviceFingerprint {
		return nil, autherror.ErrDeviceFingerprintMismatch
	}

	stored, err := s.refreshTokens.GetByHash(ctx, HashToken(input.RefreshToken))
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, autherror.ErrRefreshTokenNotFound
	}

	now := time.Now()
	if stored.Expired(now) {
		return nil, autherror.ErrRefreshTokenExpired
	}

	if stored.Revoked {
		return nil, s.handleReuse(ctx, stored, input.IPAddress)
	}

	// The conditional update is the race arbiter: of two concurrent rotations
	// of the same token exactly one wins, the other lands in the theft branch.
	won, err := s.refreshTokens.MarkRevokedIfActive(ctx, stored.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke presented token: %w", err)
	}
	if !won {
		return nil, s.handleReuse(ctx, stored, input.IPAddress)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	accessToken, refreshToken, refreshExpiresAt, err := s.tokens.IssuePair(user, stored.DeviceFingerprint, stored.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new tokens: %w", err)
	}

	successor := &domain.RefreshToken{
		ID:                uuid.NewString(),
		UserID:            stored.UserID,
		TokenHash:         HashToken(refreshToken),
		FamilyID:          stored.FamilyID,
		Generation:        stored.Generation + 1,
		SessionID:         stored.SessionID,
		DeviceFingerprint: stored.DeviceFingerprint,
		IPAddress:         input.IPAddress,
		UserAgent:         stored.UserAgent,
		ExpiresAt:         refreshExpiresAt,
		CreatedAt:         now,
	}
	if err := s.refreshTokens.Store(ctx, successor); err != nil {
		return nil, fmt.Errorf("failed to store new refresh token: %w", err)
	}

	metrics.RotationsTotal.Inc()

	return &dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout revokes the presented refresh token's whole family and denylists the
// presented access token for its remaining validity. It is idempotent: a
// second call finds already-revoked state and still succeeds.
func (s *AuthService) Logout(ctx context.Context, input dto.LogoutInput) error {
	if input.RefreshToken != "" {
		stored, err := s.refreshTokens.GetByHash(ctx, HashToken(input.RefreshToken))
		if err != nil {
			return err
		}
		if stored != nil {
			if err := s.refreshTokens.RevokeFamily(ctx, stored.FamilyID, time.Now()); err != nil {
				return fmt.Errorf("failed to revoke session: %w", err)
			}
			s.audit.Record(domain.AuditEvent{
				UserID:     stored.UserID,
				Action:     domain.AuditActionLogout,
				EntityType: "SESSION",
				EntityID:   stored.SessionID,
				Success:    true,
				IPAddress:  input.IPAddress,
				UserAgent:  input.UserAgent,
			})
		}
	}

	if input.AccessToken != "" {
		jti, remaining := s.tokens.ExtractJti(input.AccessToken)
		if jti != "" && remaining > 0 {
			if err := s.revocations.Deny(ctx, jti, remaining); err != nil {
				return fmt.Errorf("failed to denylist access token: %w", err)
			}
		}
	}

	return nil
}

// ForceLogout revokes every active refresh token of a user across families.
func (s *AuthService) ForceLogout(ctx context.Context, userID, ip string) error {
	if err := s.refreshTokens.RevokeAllByUser(ctx, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		UserID:     userID,
		Action:     domain.AuditActionForceLogout,
		EntityType: "USER",
		EntityID:   userID,
		Success:    true,
		IPAddress:  ip,
	})

	return nil
}

// ListSessions returns the user's active refresh-token records.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]dto.SessionOutput, error) {
	records, err := s.refreshTokens.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]dto.SessionOutput, 0, len(records))
	for _, rt := range records {
		sessions = append(sessions, dto.SessionOutput{
			ID:                rt.ID,
			SessionID:         rt.SessionID,
			DeviceFingerprint: rt.DeviceFingerprint,
			IPAddress:         rt.IPAddress,
			UserAgent:         rt.UserAgent,
			Generation:        rt.Generation,
			CreatedAt:         rt.CreatedAt,
			ExpiresAt:         rt.ExpiresAt,
		})
	}

	return sessions, nil
}

// handleReuse is the theft response: every record sharing the family id is
// revoked, the event is audited, and the caller gets a security violation.
func (s *AuthService) handleReuse(ctx context.Context, stored *domain.RefreshToken, ip string) error {
	if err := s.refreshTokens.RevokeFamily(ctx, stored.FamilyID, time.Now()); err != nil {
		return fmt.Errorf("failed to revoke compromised family: %w", err)
	}

	metrics.ReuseDetectedTotal.Inc()
	s.logger.Warn("refresh token reuse detected",
		slog.String("user_id", stored.UserID),
		slog.String("family_id", stored.FamilyID),
		slog.Int("generation", stored.Generation),
	)
	s.audit.Record(domain.AuditEvent{
		UserID:     stored.UserID,
		Action:     domain.AuditActionTokenReuse,
		EntityType: "USER",
		EntityID:   stored.UserID,
		Success:    false,
		IPAddress:  ip,
	})

	return autherror.ErrSecurityViolation
}

// issueTokens mints a session: fresh session and family ids, a signed pair,
// and the first-generation refresh record.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, fingerprint, ip, userAgent string) (*dto.TokenResponse, error) {
	sessionID := uuid.NewString()
	familyID := uuid.NewString()

	accessToken, refreshToken, refreshExpiresAt, err := s.tokens.IssuePair(user, fingerprint, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	record := &domain.RefreshToken{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		TokenHash:         HashToken(refreshToken),
		FamilyID:          familyID,
		Generation:        1,
		SessionID:         sessionID,
		DeviceFingerprint: fingerprint,
		IPAddress:         ip,
		UserAgent:         userAgent,
		ExpiresAt:         refreshExpiresAt,
		CreatedAt:         time.Now(),
	}
	if err := s.refreshTokens.Store(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if err := s.devices.RecordSeen(ctx, user.ID, fingerprint, ip); err != nil {
		s.logger.Warn("failed to update device last-seen", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.audit.Record(domain.AuditEvent{
		UserID:     user.ID,
		Action:     domain.AuditActionLogin,
		EntityType: "USER",
		EntityID:   user.ID,
		Success:    true,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})

	return &dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
