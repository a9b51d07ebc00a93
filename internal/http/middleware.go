// FILE: internal/http/middleware.go
package http

import (
	"strings"

	"repertoire/internal/core"
	"repertoire/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator validates bearer tokens
type TokenValidator func(token string) (userID string, claims map[string]any, err error)

// AuthRequired rejects requests without a valid bearer token and stores the
// token's user in Locals "userID"
func AuthRequired(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		token := extractBearerToken(c.Get("Authorization"))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "missing authorization token",
				Code:  core.ErrUnauthorized,
			})
		}

		userID, claims, err := validateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "invalid or expired token",
				Code:  core.ErrUnauthorized,
			})
		}

		c.Locals("userID", userID)
		if name, ok := claims["username"].(string); ok {
			c.Locals("username", name)
		}
		return c.Next()
	}
}

// authGate enforces tokens only when the service has a signing secret
func authGate(svc *service.Service) fiber.Handler {
	if !svc.AuthEnabled() {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	return AuthRequired(svc.ValidateToken)
}

// extractBearerToken extracts the token from an Authorization header
func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
