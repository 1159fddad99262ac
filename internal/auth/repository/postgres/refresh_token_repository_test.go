package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	repo "github.com/NeuroDev204/Neuro-bank/internal/auth/repository/postgres"
)

var refreshTokenColumns = []string{
	"id", "user_id", "token_hash", "family_id", "generation", "session_id",
	"device_fingerprint", "ip_address", "user_agent", "expires_at", "revoked", "revoked_at", "created_at",
}

// TestStoreRefreshToken covers the Store repository method.
func TestStoreRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()

	r := repo.NewRefreshTokenRepository(mock)
	rt := &domain.RefreshToken{
		ID:         "rt-123",
		UserID:     "user-123",
		TokenHash:  "hash",
		FamilyID:   "family-1",
		Generation: 1,
		SessionID:  "session-1",
		ExpiresAt:  time.Now().Add(time.Hour),
		CreatedAt:  time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO refresh_tokens").
			WithArgs(rt.ID, rt.UserID, rt.TokenHash, rt.FamilyID, rt.Generation, rt.SessionID,
				rt.DeviceFingerprint, rt.IPAddress, rt.UserAgent, rt.ExpiresAt, rt.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := r.Store(ctx, rt)
		assert.NoError(t, err)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO refresh_tokens").
			WithArgs(rt.ID, rt.UserID, rt.TokenHash, rt.FamilyID, rt.Generation, rt.SessionID,
				rt.DeviceFingerprint, rt.IPAddress, rt.UserAgent, rt.ExpiresAt, rt.CreatedAt).
			WillReturnError(fmt.Errorf("db error"))

		err := r.Store(ctx, rt)
		assert.Error(t, err)
	})
}

// TestGetByHash covers the GetByHash repository method.
func TestGetByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()

	r := repo.NewRefreshTokenRepository(mock)
	tokenHash := "stored-hash"

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(tokenHash).
			WillReturnRows(pgxmock.NewRows(refreshTokenColumns).
				AddRow("rt-123", "user-123", tokenHash, "family-1", 3, "session-1",
					"fp", "10.0.0.1", "agent", time.Now().Add(time.Hour), false, nil, time.Now()))

		rt, err := r.GetByHash(ctx, tokenHash)
		require.NoError(t, err)
		assert.Equal(t, "rt-123", rt.ID)
		assert.Equal(t, 3, rt.Generation)
		assert.False(t, rt.Revoked)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(tokenHash).
			WillReturnError(pgx.ErrNoRows)

		rt, err := r.GetByHash(ctx, tokenHash)
		require.NoError(t, err)
		assert.Nil(t, rt)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(tokenHash).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByHash(ctx, tokenHash)
		assert.Error(t, err)
	})
}

// TestMarkRevokedIfActive verifies the rows-affected arbitration: the first
// revocation of a record wins, any later one loses.
func TestMarkRevokedIfActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()

	r := repo.NewRefreshTokenRepository(mock)
	now := time.Now()

	t.Run("wins when still active", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("rt-123", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		won, err := r.MarkRevokedIfActive(ctx, "rt-123", now)
		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("loses when already revoked", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("rt-123", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		won, err := r.MarkRevokedIfActive(ctx, "rt-123", now)
		require.NoError(t, err)
		assert.False(t, won)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("rt-123", now).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.MarkRevokedIfActive(ctx, "rt-123", now)
		assert.Error(t, err)
	})
}

// TestRevokeFamily covers the family-wide revocation.
func TestRevokeFamily(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewRefreshTokenRepository(mock)
	now := time.Now()

	mock.ExpectExec("UPDATE refresh_tokens").
		WithArgs("family-1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	err = r.RevokeFamily(ctx, "family-1", now)
	require.NoError(t, err)
}

// TestRevokeAllByUser covers the cross-family revocation used by force logout.
func TestRevokeAllByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewRefreshTokenRepository(mock)
	now := time.Now()

	mock.ExpectExec("UPDATE refresh_tokens").
		WithArgs("user-123", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	err = r.RevokeAllByUser(ctx, "user-123", now)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE refresh_tokens").
		WithArgs("user-123", now).
		WillReturnError(fmt.Errorf("db error"))

	err = r.RevokeAllByUser(ctx, "user-123", now)
	require.Error(t, err)
}

// TestListActiveByUser covers the session listing.
func TestListActiveByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewRefreshTokenRepository(mock)

	t.Run("success", func(t *testing.T) {
		now := time.Now()
		rows := pgxmock.NewRows(refreshTokenColumns).
			AddRow("rt-1", "user-123", "hash-1", "family-1", 2, "session-1",
				"fp-1", "10.0.0.1", "agent", now.Add(time.Hour), false, nil, now).
			AddRow("rt-2", "user-123", "hash-2", "family-2", 1, "session-2",
				"fp-2", "10.0.0.2", "agent", now.Add(time.Hour), false, nil, now)

		mock.ExpectQuery("SELECT id, user_id").
			WithArgs("user-123").
			WillReturnRows(rows)

		tokens, err := r.ListActiveByUser(ctx, "user-123")
		require.NoError(t, err)
		assert.Len(t, tokens, 2)
		assert.Equal(t, "session-1", tokens[0].SessionID)
		assert.Equal(t, "family-2", tokens[1].FamilyID)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs("user-123").
			WillReturnError(fmt.Errorf("db error"))

		tokens, err := r.ListActiveByUser(ctx, "user-123")
		assert.Error(t, err)
		assert.Nil(t, tokens)
	})
}

// TestDeleteExpiredAndRevoked covers the cleanup sweep.
func TestDeleteExpiredAndRevoked(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewRefreshTokenRepository(mock)
	now := time.Now()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	deleted, err := r.DeleteExpiredAndRevoked(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}
