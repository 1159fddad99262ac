package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
)

type RefreshTokenRepository struct {
	db PgxPool
}

func NewRefreshTokenRepository(db PgxPool) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Store(ctx context.Context, token *domain.RefreshToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, family_id, generation, session_id,
			 device_fingerprint, ip_address, user_agent, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11)
	`, token.ID, token.UserID, token.TokenHash, token.FamilyID, token.Generation, token.SessionID,
		token.DeviceFingerprint, token.IPAddress, token.UserAgent, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, family_id, generation, session_id,
		       device_fingerprint, ip_address, user_agent, expires_at, revoked, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1;
	`
	row := r.db.QueryRow(ctx, query, tokenHash)

	var t domain.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.FamilyID, &t.Generation, &t.SessionID,
		&t.DeviceFingerprint, &t.IPAddress, &t.UserAgent, &t.ExpiresAt, &t.Revoked, &t.RevokedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &t, nil
}

// MarkRevokedIfActive flips a single token to revoked only if it is still
// active. The rows-affected count arbitrates concurrent rotations: exactly
// one caller observes true, every other caller observes false.
func (r *RefreshTokenRepository) MarkRevokedIfActive(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE id = $1 AND revoked = FALSE
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE family_id = $1 AND revoked = FALSE
	`, familyID, at)

	return err
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND revoked = FALSE
	`, userID, at)

	return err
}

func (r *RefreshTokenRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, family_id, generation, session_id,
		       device_fingerprint, ip_address, user_agent, expires_at, revoked, revoked_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked = FALSE AND expires_at > NOW()
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.RefreshToken
	for rows.Next() {
		var t domain.RefreshToken
		err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.FamilyID, &t.Generation, &t.SessionID,
			&t.DeviceFingerprint, &t.IPAddress, &t.UserAgent, &t.ExpiresAt, &t.Revoked, &t.RevokedAt, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, &t)
	}

	return tokens, rows.Err()
}

func (r *RefreshTokenRepository) DeleteExpiredAndRevoked(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked = TRUE
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to prune refresh tokens: %w", err)
	}

	return tag.RowsAffected(), nil
}
