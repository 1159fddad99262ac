package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/dto"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/service"
	autherror "github.com/NeuroDev204/Neuro-bank/internal/errors"
	"github.com/NeuroDev204/Neuro-bank/pkg/constant"
)

// memoryTokenStore is an in-memory RefreshTokenRepository with the same
// arbitration semantics as the Postgres implementation.
type memoryTokenStore struct {
	mu     sync.Mutex
	byID   map[string]*domain.RefreshToken
	byHash map[string]string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{
		byID:   make(map[string]*domain.RefreshToken),
		byHash: make(map[string]string),
	}
}

func (s *memoryTokenStore) Store(_ context.Context, token *domain.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *token
	s.byID[token.ID] = &copied
	s.byHash[token.TokenHash] = token.ID

	return nil
}

func (s *memoryTokenStore) GetByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byHash[tokenHash]
	if !ok {
		return nil, nil
	}
	copied := *s.byID[id]

	return &copied, nil
}

func (s *memoryTokenStore) MarkRevokedIfActive(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byID[id]
	if !ok || token.Revoked {
		return false, nil
	}
	token.Revoked = true
	token.RevokedAt = &at

	return true, nil
}

func (s *memoryTokenStore) RevokeFamily(_ context.Context, familyID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, token := range s.byID {
		if token.FamilyID == familyID && !token.Revoked {
			token.Revoked = true
			token.RevokedAt = &at
		}
	}

	return nil
}

func (s *memoryTokenStore) RevokeAllByUser(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, token := range s.byID {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			token.RevokedAt = &at
		}
	}

	return nil
}

func (s *memoryTokenStore) ListActiveByUser(_ context.Context, userID string) ([]*domain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var active []*domain.RefreshToken
	for _, token := range s.byID {
		if token.UserID == userID && !token.Revoked && token.ExpiresAt.After(now) {
			copied := *token
			active = append(active, &copied)
		}
	}

	return active, nil
}

func (s *memoryTokenStore) DeleteExpiredAndRevoked(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, token := range s.byID {
		if token.Revoked || token.ExpiresAt.Before(now) {
			delete(s.byHash, token.TokenHash)
			delete(s.byID, id)
			removed++
		}
	}

	return removed, nil
}

func (s *memoryTokenStore) activeInFamily(familyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, token := range s.byID {
		if token.FamilyID == familyID && !token.Revoked {
			count++
		}
	}

	return count
}

func (s *memoryTokenStore) maxGeneration(familyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	max := 0
	for _, token := range s.byID {
		if token.FamilyID == familyID && token.Generation > max {
			max = token.Generation
		}
	}

	return max
}

// sequenceTokens mints predictable raw refresh tokens so the model can replay
// any previously issued one.
type sequenceTokens struct {
	next int
}

func (g *sequenceTokens) Issue(_ *domain.User, _, _, _ string) (string, error) {
	return "access-token", nil
}

func (g *sequenceTokens) IssuePair(_ *domain.User, _, _ string) (string, string, time.Time, error) {
	raw := fmt.Sprintf("refresh-%d", g.next)
	g.next++

	return "access-token", raw, time.Now().Add(7 * 24 * time.Hour), nil
}

func (g *sequenceTokens) Parse(_ string) (*service.SessionClaims, error) {
	return &service.SessionClaims{TokenType: constant.TokenTypeRefresh, SessionID: "session-1"}, nil
}

func (g *sequenceTokens) ExtractJti(string) (string, time.Duration) { return "", 0 }
func (g *sequenceTokens) AccessTokenTTL() time.Duration             { return 15 * time.Minute }
func (g *sequenceTokens) RefreshTokenTTL() time.Duration            { return 7 * 24 * time.Hour }

type staticUsers struct {
	user *domain.User
}

func (s *staticUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return s.user, nil
}
func (s *staticUsers) GetByID(context.Context, string) (*domain.User, error) { return s.user, nil }
func (s *staticUsers) Create(context.Context, *domain.User) error            { return nil }
func (s *staticUsers) UpdateStatus(context.Context, string, domain.UserStatus) error {
	return nil
}

type noopAudit struct{}

func (noopAudit) Record(domain.AuditEvent) {}

// TestRotationProperties drives random interleavings of legitimate rotations
// and replays of stale tokens against the full refresh flow, checking that a
// family never holds more than one active token, generations only grow, and
// any replay kills the whole family.
func TestRotationProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		user := &domain.User{ID: "user-123", Email: "test@example.com", Status: domain.StatusActive}
		store := newMemoryTokenStore()
		gen := &sequenceTokens{next: 1}

		svc := service.NewAuthService(&staticUsers{user: user}, nil, nil, nil, gen, store,
			nil, nil, nil, noopAudit{}, discardLogger())

		const familyID = "family-1"
		seed := &domain.RefreshToken{
			ID:         "rt-0",
			UserID:     user.ID,
			TokenHash:  service.HashToken("refresh-0"),
			FamilyID:   familyID,
			Generation: 1,
			SessionID:  "session-1",
			ExpiresAt:  time.Now().Add(7 * 24 * time.Hour),
		}
		require.NoError(t, store.Store(context.Background(), seed))

		issued := []string{"refresh-0"}
		current := "refresh-0"
		compromised := false
		lastGen := 1

		t.Repeat(map[string]func(*rapid.T){
			"rotate": func(t *rapid.T) {
				resp, err := svc.Refresh(context.Background(), dto.RefreshInput{RefreshToken: current})
				if compromised {
					assert.ErrorIs(t, err, autherror.ErrSecurityViolation)
					return
				}

				require.NoError(t, err)
				issued = append(issued, resp.RefreshToken)
				current = resp.RefreshToken
			},
			"replay stale": func(t *rapid.T) {
				if len(issued) < 2 {
					t.Skip("nothing stale to replay yet")
				}
				stale := rapid.SampledFrom(issued[:len(issued)-1]).Draw(t, "stale")

				_, err := svc.Refresh(context.Background(), dto.RefreshInput{RefreshToken: stale})
				assert.ErrorIs(t, err, autherror.ErrSecurityViolation)
				compromised = true
			},
			"": func(t *rapid.T) {
				active := store.activeInFamily(familyID)
				if compromised {
					assert.Zero(t, active, "a compromised family must be fully revoked")
				} else {
					assert.Equal(t, 1, active, "exactly one token per family stays active")
				}

				maxGen := store.maxGeneration(familyID)
				assert.GreaterOrEqual(t, maxGen, lastGen, "generations never go backwards")
				lastGen = maxGen
			},
		})
	})
}
