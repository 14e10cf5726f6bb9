package middleware

import (
	"fmt"
	"log/slog"
	"strings"

	"gymhub/internal/apperror"
	"gymhub/internal/logging"
	"gymhub/internal/security"

	"github.com/gofiber/fiber/v2"
)

// localsUserKey is the fiber.Ctx Locals key holding the verified payload.
const localsUserKey = "auth.user"

// TokenVerifier verifies an access token and returns its claims.
type TokenVerifier interface {
	ValidateToken(token string) (*security.TokenPayload, error)
}

// AuthRequired is a Fiber middleware to check for a valid bearer token.
// Authentication failures answer 401; anything unexpected while checking,
// including a panic in the verifier, answers 500.
func AuthRequired(verifier TokenVerifier, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return reject(c, fiber.StatusUnauthorized, "authorization header is required")
		}

		// Expected format: "Bearer <token>"
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return reject(c, fiber.StatusUnauthorized, "authorization header format must be 'Bearer <token>'")
		}

		payload, err := verify(verifier, strings.TrimSpace(token))
		if err != nil {
			if apperror.KindOf(err) == apperror.KindUnauthorized {
				logger.DebugContext(c.UserContext(), "bearer token rejected", "path", c.Path(), "error", err)
				return reject(c, fiber.StatusUnauthorized, apperror.PublicMessage(err))
			}
			logging.LogError(logger, "auth guard failed", err, "path", c.Path())
			return reject(c, fiber.StatusInternalServerError, "internal server error")
		}

		c.Locals(localsUserKey, payload)
		return c.Next()
	}
}

// verify converts a verifier panic into an error.
func verify(verifier TokenVerifier, token string) (payload *security.TokenPayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, fmt.Errorf("token verifier panicked: %v", r)
		}
	}()
	return verifier.ValidateToken(token)
}

func reject(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"status":  status,
		"error":   message,
	})
}

// CurrentUser returns the payload stored by AuthRequired.
func CurrentUser(c *fiber.Ctx) (*security.TokenPayload, bool) {
	payload, ok := c.Locals(localsUserKey).(*security.TokenPayload)
	return payload, ok && payload != nil
}
