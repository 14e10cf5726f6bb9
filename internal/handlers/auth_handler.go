package handlers

import (
	"log/slog"

	"gymhub/internal/apperror"
	"gymhub/internal/logging"
	"gymhub/internal/middleware"
	"gymhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers the authentication routes. guard protects logout
// and validate.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/refresh", h.HandleRefresh)
	authRoutes.Post("/logout", guard, h.HandleLogout)
	authRoutes.Get("/validate", guard, h.HandleValidate)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// HandleLogin authenticates by email and password and issues a token pair.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, errInvalidBody)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, h.logger, apperror.Validation("", "email and password are required"))
	}

	result, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, result)
}

// HandleRefresh rotates a refresh token into a new token pair.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, errInvalidBody)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, h.logger, apperror.Validation("refreshToken", "refreshToken is required"))
	}

	pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, pair)
}

// HandleLogout acknowledges a logout. Tokens are not revoked.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	if err := h.authService.Logout(c.UserContext(), user); err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
}

// HandleValidate returns the claims of the presented access token.
func (h *AuthHandler) HandleValidate(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, h.logger, apperror.Unauthorized("invalid token", nil))
	}
	return respond(c, fiber.StatusOK, user)
}
