package middleware

import (
	"strings"

	"github.com/Philip-857-bit/feedback/internal/auth"
	"github.com/Philip-857-bit/feedback/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie the admin UI stores its token in.
const SessionCookie = "session"

// SessionMiddleware gates admin-only routes. It is an explicit, injected
// guard: the token comes from the session cookie or a Bearer header, and
// nothing outside this middleware reads authentication state.
type SessionMiddleware struct {
	sessions *auth.SessionService
}

func NewSessionMiddleware(sessions *auth.SessionService) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Required rejects requests without a valid admin session.
func (m *SessionMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(SessionCookie)
		if tokenString == "" {
			authHeader := c.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"UNAUTHORIZED", "Admin session required",
			))
		}

		claims, err := m.sessions.ValidateToken(tokenString)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
					"SESSION_EXPIRED", "Session has expired, please log in again",
				))
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"INVALID_SESSION", "Session is not valid",
			))
		}

		if claims.Role != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse(
				"FORBIDDEN", "Admin access only",
			))
		}

		c.Locals("isAdmin", true)
		return c.Next()
	}
}

// IsAuthorized reports whether the current request carries an admin session.
func IsAuthorized(c *fiber.Ctx) bool {
	v := c.Locals("isAdmin")
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
