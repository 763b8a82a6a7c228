package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/userauth/internal/models"
	"github.com/example/userauth/internal/services"
)

const (
	// TokenHeader carries the raw access token.
	TokenHeader = "token"

	userContextKey = "currentUser"
)

// AuthMiddleware resolves the token header to a live user and stores it in context.
func AuthMiddleware(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := tokens.Verify(c.UserContext(), c.Get(TokenHeader))
		if err != nil {
			return err
		}

		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// GetCurrentUser extracts the authenticated user from context.
func GetCurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(userContextKey).(models.User)
	return user, ok
}
