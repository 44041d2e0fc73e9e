package handler

import (
	"log"
	"time"

	"github.com/Philip-857-bit/feedback/internal/auth"
	"github.com/Philip-857-bit/feedback/internal/config"
	"github.com/Philip-857-bit/feedback/internal/dto"
	"github.com/Philip-857-bit/feedback/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	sessions     *auth.SessionService
	passwordHash string
	secureCookie bool
}

func NewAuthHandler(sessions *auth.SessionService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		sessions:     sessions,
		passwordHash: cfg.Admin.PasswordHash,
		secureCookie: cfg.App.Env == "production",
	}
}

// Login - POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		req.Password = c.FormValue("password")
	}

	if h.passwordHash == "" {
		log.Printf("[Auth] login attempted but ADMIN_PASSWORD_HASH is not configured")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse(
			"LOGIN_UNAVAILABLE", "Admin login is not configured",
		))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
			"INVALID_CREDENTIALS", "Invalid password.",
		))
	}

	token, err := h.sessions.IssueToken()
	if err != nil {
		log.Printf("[Auth] failed to issue session token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"INTERNAL_ERROR", "Failed to create session",
		))
	}

	expiry := h.sessions.Expiry()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(expiry),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(dto.SuccessResponse(dto.LoginResponse{
		Token:     token,
		ExpiresIn: int64(expiry.Seconds()),
		TokenType: "Bearer",
	}, "Logged in"))
}

// Me - GET /auth/me (admin only). Lets the admin UI check whether its
// session cookie is still valid.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse(fiber.Map{
		"authorized": middleware.IsAuthorized(c),
		"role":       "admin",
	}, ""))
}

// Logout - POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.SuccessResponse(nil, "Logged out"))
}
