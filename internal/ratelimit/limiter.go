// Package ratelimit implements fixed-window rate limiting over the ephemeral
// store's increment-with-TTL counters.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
	"github.com/NeuroDev204/Neuro-bank/pkg/constant"
)

type Limiter struct {
	store domain.EphemeralStore
}

func NewLimiter(store domain.EphemeralStore) *Limiter {
	return &Limiter{store: store}
}

// Check counts a request against key and fails once the window's limit is
// exceeded. The counted request is rejected, not queued.
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) error {
	count, err := l.store.Increment(ctx, key, window)
	if err != nil {
		return err
	}
	if count > int64(limit) {
		return autherror.ErrTooManyRequests
	}

	return nil
}

// LoginIPKey builds the per-IP login counter key.
func LoginIPKey(ip string) string {
	return constant.KeyPrefixRateLogin + "ip:" + ip
}

// LoginEmailKey hashes the address so no plaintext email lands in a Redis key.
func LoginEmailKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return constant.KeyPrefixRateLogin + "email:" + hex.EncodeToString(sum[:])
}

// OtpSendKey builds the per-(user, purpose) OTP delivery counter key.
func OtpSendKey(userID, purpose string) string {
	return constant.KeyPrefixRateOtpSend + userID + ":" + purpose
}
