package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/art-exam-api/internal/auth"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalUserID    = "user_id"
	LocalUserRole  = "user_role"
	LocalUserEmail = "user_email"
)

// TokenParser verifies a bearer token and returns the caller identity.
type TokenParser interface {
	Parse(token string) (auth.Identity, error)
}

// JWTProtected returns a middleware that validates JWT bearer tokens.
func JWTProtected(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		identity, err := parser.Parse(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalUserRole, strings.ToLower(strings.TrimSpace(identity.Role)))
		c.Locals(LocalUserEmail, identity.Email)

		return c.Next()
	}
}
