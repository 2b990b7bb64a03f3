package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecut/api/pkg/response"
)

// GatewayAuthMiddleware trusts the identity headers the gateway attached
// after calling /auth/verify. Only use it when the API is unreachable
// except through the gateway.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		if userID == "" {
			return response.Unauthorized(c, "Missing user identity headers")
		}
		setIdentity(c, userID, c.Get(HeaderUserEmail), c.Get(HeaderUserName))
		return c.Next()
	}
}
