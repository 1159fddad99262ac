package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/NeuroDev204/Neuro-bank/internal/auth/service TokenGenerator

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
	"github.com/NeuroDev204/Neuro-bank/pkg/constant"
)

type TokenGenerator interface {
	Issue(user *domain.User, deviceFingerprint, sessionID, tokenType string) (string, error)
	IssuePair(user *domain.User, deviceFingerprint, sessionID string) (accessToken, refreshToken string, refreshExpiresAt time.Time, err error)
	Parse(tokenString string) (*SessionClaims, error)
	ExtractJti(tokenString string) (jti string, remaining time.Duration)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// SessionClaims is the exact claim set carried by both token kinds. Access
// tokens additionally carry email and status for downstream services.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email             string `json:"email,omitempty"`
	Status            string `json:"status,omitempty"`
	TokenType         string `json:"tokenType"`
	SessionID         string `json:"sessionId"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}

// TokenService signs with an RSA private key held only here; verification
// elsewhere needs just the public key. The key pair is loaded once at startup
// and never mutated.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(privateKeyPEM, publicKeyPEM []byte, issuer string, accessMinutes, refreshDays int) (*TokenService, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
	}

	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		accessTTL:  time.Duration(accessMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshDays) * 24 * time.Hour,
	}, nil
}

// Issue signs one token of the given type for the user. Access tokens carry
// email and status; refresh tokens carry only the session claims.
func (ts *TokenService) Issue(user *domain.User, deviceFingerprint, sessionID, tokenType string) (string, error) {
	return ts.issue(user, deviceFingerprint, sessionID, tokenType, time.Now())
}

func (ts *TokenService) issue(user *domain.User, deviceFingerprint, sessionID, tokenType string, now time.Time) (string, error) {
	var ttl time.Duration

	switch tokenType {
	case constant.TokenTypeAccess:
		ttl = ts.accessTTL
	case constant.TokenTypeRefresh:
		ttl = ts.refreshTTL
	default:
		return "", fmt.Errorf("unknown token type %q", tokenType)
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		TokenType:         tokenType,
		SessionID:         sessionID,
		DeviceFingerprint: deviceFingerprint,
	}
	if tokenType == constant.TokenTypeAccess {
		claims.Email = user.Email
		claims.Status = string(user.Status)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return signed, nil
}

// IssuePair signs an access and a refresh token bound to the same session.
// Both tokens and the returned expiry derive from a single clock reading, so
// the stored refresh record never outlives the token's own exp claim.
func (ts *TokenService) IssuePair(user *domain.User, deviceFingerprint, sessionID string) (string, string, time.Time, error) {
	now := time.Now()

	accessToken, err := ts.issue(user, deviceFingerprint, sessionID, constant.TokenTypeAccess, now)
	if err != nil {
		return "", "", time.Time{}, err
	}

	refreshToken, err := ts.issue(user, deviceFingerprint, sessionID, constant.TokenTypeRefresh, now)
	if err != nil {
		return "", "", time.Time{}, err
	}

	return accessToken, refreshToken, now.Add(ts.refreshTTL), nil
}

// Parse verifies the signature and expiry and returns the claims. Mis-signed,
// malformed, expired or non-RS256 tokens all fail closed with ErrInvalidToken.
func (ts *TokenService) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return ts.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, autherror.ErrInvalidToken
	}

	return claims, nil
}

// ExtractJti reads the token id and the remaining validity without verifying
// the signature. It is used only for denylisting on logout, where an
// unparseable token simply means nothing to deny.
func (ts *TokenService) ExtractJti(tokenString string) (string, time.Duration) {
	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", 0
	}
	if claims.ExpiresAt == nil {
		return claims.ID, 0
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		remaining = 0
	}

	return claims.ID, remaining
}

func (ts *TokenService) AccessTokenTTL() time.Duration {
	return ts.accessTTL
}

func (ts *TokenService) RefreshTokenTTL() time.Duration {
	return ts.refreshTTL
}

// HashToken is the storage form for refresh tokens and OTP codes: raw
// secrets are never persisted.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
