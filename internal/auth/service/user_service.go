package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/dto"
	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
)

// UserService handles account creation and email verification.
type UserService struct {
	users       domain.UserRepository
	credentials domain.CredentialRepository
	otp         *OtpService
	audit       domain.AuditSink
}

func NewUserService(users domain.UserRepository, credentials domain.CredentialRepository,
	otp *OtpService, audit domain.AuditSink) *UserService {
	return &UserService{
		users:       users,
		credentials: credentials,
		otp:         otp,
		audit:       audit,
	}
}

// Register creates a pending-verification account with hashed password and
// PIN and sends the email-verification code.
func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	existingUser, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(input.Pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	user := &domain.User{
		ID:        uuid.NewString(),
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Status:    domain.StatusPendingVerification,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	credential := &domain.Credential{
		UserID:       user.ID,
		PasswordHash: string(passwordHash),
		PinHash:      string(pinHash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.credentials.Create(ctx, credential); err != nil {
		return nil, err
	}

	if err := s.otp.Issue(ctx, user, domain.OtpPurposeEmailVerification, ""); err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEvent{
		UserID:     user.ID,
		Action:     domain.AuditActionRegister,
		EntityType: "USER",
		EntityID:   user.ID,
		Success:    true,
	})

	return user, nil
}

// VerifyEmail confirms the email-verification OTP and activates the account.
func (s *UserService) VerifyEmail(ctx context.Context, input dto.VerifyEmailInput) error {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}
	if user.Status != domain.StatusPendingVerification {
		return autherror.ErrAccountAlreadyVerified
	}

	if err := s.otp.Verify(ctx, user, domain.OtpPurposeEmailVerification, input.Code); err != nil {
		return err
	}

	if err := s.users.UpdateStatus(ctx, user.ID, domain.StatusActive); err != nil {
		return err
	}

	s.audit.Record(domain.AuditEvent{
		UserID:     user.ID,
		Action:     domain.AuditActionEmailVerified,
		EntityType: "USER",
		EntityID:   user.ID,
		Success:    true,
	})

	return nil
}

// ResendOtp reissues the email-verification code for an unverified account.
func (s *UserService) ResendOtp(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}
	if user.Status != domain.StatusPendingVerification {
		return autherror.ErrAccountAlreadyVerified
	}

	return s.otp.Issue(ctx, user, domain.OtpPurposeEmailVerification, "")
}
