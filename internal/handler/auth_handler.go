package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecut/api/internal/auth"
	"github.com/vibecut/api/internal/middleware"
)

// AuthHandler answers the gateway's ForwardAuth subrequest.
type AuthHandler struct {
	authn *auth.Authenticator
}

func NewAuthHandler(verifier auth.TokenVerifier, jwtSecret string) *AuthHandler {
	return &AuthHandler{authn: auth.NewAuthenticator(verifier, jwtSecret)}
}

// Verify handles GET /auth/verify. A valid bearer token gets 200 with the
// identity headers the gateway copies onto the upstream request. Anything
// else is a bare 401.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	token, ok := middleware.BearerToken(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	id, err := h.authn.Identify(token)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	c.Set(middleware.HeaderUserID, id.UserID)
	c.Set(middleware.HeaderUserEmail, id.Email)
	if id.Name != "" {
		c.Set(middleware.HeaderUserName, id.Name)
	}
	return c.SendStatus(fiber.StatusOK)
}
