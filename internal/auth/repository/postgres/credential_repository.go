package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
)

type CredentialRepository struct {
	db PgxPool
}

func NewCredentialRepository(db PgxPool) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) GetByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	query := `
		SELECT user_id, password_hash, pin_hash, failed_login_attempts,
		       locked_until, last_login_at, last_login_ip, created_at, updated_at
		FROM user_credentials
		WHERE user_id = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, userID)

	var c domain.Credential
	err := row.Scan(&c.UserID, &c.PasswordHash, &c.PinHash, &c.FailedLoginAttempts,
		&c.LockedUntil, &c.LastLoginAt, &c.LastLoginIP, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return &c, nil
}

func (r *CredentialRepository) Create(ctx context.Context, credential *domain.Credential) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_credentials (user_id, password_hash, pin_hash, failed_login_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
	`, credential.UserID, credential.PasswordHash, credential.PinHash, credential.CreatedAt, credential.UpdatedAt)

	return err
}

// RecordFailure bumps the counter and sets the lock in one statement, so two
// concurrent failures can never produce an inconsistent lock. It returns the
// counter after the increment.
func (r *CredentialRepository) RecordFailure(ctx context.Context, userID string, threshold int, lockFor time.Duration) (int, error) {
	lockedUntil := time.Now().Add(lockFor)

	query := `
		UPDATE user_credentials
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE WHEN failed_login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		    updated_at = now()
		WHERE user_id = $1
		RETURNING failed_login_attempts;
	`
	row := r.db.QueryRow(ctx, query, userID, threshold, lockedUntil)

	var attempts int
	if err := row.Scan(&attempts); err != nil {
		return 0, fmt.Errorf("failed to record login failure: %w", err)
	}

	return attempts, nil
}

func (r *CredentialRepository) RecordSuccess(ctx context.Context, userID, ip string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_credentials
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    last_login_at = now(),
		    last_login_ip = $2,
		    updated_at = now()
		WHERE user_id = $1
	`, userID, ip)

	return err
}
