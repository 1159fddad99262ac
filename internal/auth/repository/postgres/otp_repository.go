package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
)

type OtpRepository struct {
	db PgxPool
}

func NewOtpRepository(db PgxPool) *OtpRepository {
	return &OtpRepository{db: db}
}

// InvalidateActive enforces the single-active-challenge invariant: every
// unused challenge for (user, purpose) is marked used.
func (r *OtpRepository) InvalidateActive(ctx context.Context, userID, purpose string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE otps
		SET used = TRUE, used_at = $3
		WHERE user_id = $1 AND purpose = $2 AND used = FALSE
	`, userID, purpose, at)

	return err
}

func (r *OtpRepository) Create(ctx context.Context, otp *domain.OtpChallenge) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO otps (id, user_id, code_hash, purpose, expires_at, used, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)
	`, otp.ID, otp.UserID, otp.CodeHash, otp.Purpose, otp.ExpiresAt, otp.IPAddress, otp.CreatedAt)

	return err
}

func (r *OtpRepository) FindValid(ctx context.Context, userID, purpose, codeHash string, now time.Time) (*domain.OtpChallenge, error) {
	query := `
		SELECT id, user_id, code_hash, purpose, expires_at, used, used_at, ip_address, created_at
		FROM otps
		WHERE user_id = $1 AND purpose = $2 AND code_hash = $3
		  AND used = FALSE AND expires_at > $4
		ORDER BY created_at DESC
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, userID, purpose, codeHash, now)

	var otp domain.OtpChallenge
	err := row.Scan(&otp.ID, &otp.UserID, &otp.CodeHash, &otp.Purpose, &otp.ExpiresAt,
		&otp.Used, &otp.UsedAt, &otp.IPAddress, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find challenge: %w", err)
	}

	return &otp, nil
}

func (r *OtpRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE otps SET used = TRUE, used_at = $2 WHERE id = $1
	`, id, at)

	return err
}
