package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/service"
	"github.com/NeuroDev204/Neuro-bank/pkg/constant"
)

// ClaimsKey is the fiber locals key holding the verified access token claims.
const ClaimsKey = "claims"

type AuthMiddleware struct {
	tokens      service.TokenGenerator
	revocations domain.RevocationRegistry
}

func NewAuthMiddleware(tokens service.TokenGenerator, revocations domain.RevocationRegistry) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, revocations: revocations}
}

// RequireAuth accepts only unrevoked ACCESS tokens and stashes the claims
// for the handler.
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		claims, err := m.tokens.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		if claims.TokenType != constant.TokenTypeAccess {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token type"})
		}

		denied, err := m.revocations.IsDenied(c.UserContext(), claims.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}
		if denied {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token revoked"})
		}

		c.Locals(ClaimsKey, claims)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}

	return token
}
