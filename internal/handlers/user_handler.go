package handlers

import (
	"log/slog"
	"net/url"

	"gymhub/internal/apperror"
	"gymhub/internal/logging"
	"gymhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service *services.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the user routes. Creation is public; guard
// protects the rest.
func (h *UserHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/", guard, h.HandleListUsers)
	userRoutes.Get("/username/:username", guard, h.HandleGetUserByUsername)
	userRoutes.Get("/email/:email", guard, h.HandleGetUserByEmail)
	userRoutes.Get("/:id", guard, h.HandleGetUserByID)
	userRoutes.Put("/:id", guard, h.HandleUpdateUser)
	userRoutes.Delete("/:id", guard, h.HandleDeleteUser)
}

// CreateUserRequest represents the request body for user creation.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest represents a partial update. Omitted fields are kept.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// HandleCreateUser registers a new user.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, errInvalidBody)
	}

	user, err := h.service.CreateUser(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusCreated, user)
}

// HandleListUsers returns a page of users. Query: limit, offset.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, users)
}

// HandleGetUserByID retrieves a single user by its ID.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	user, err := h.service.GetUserByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, user)
}

// HandleGetUserByUsername retrieves a single user by username.
func (h *UserHandler) HandleGetUserByUsername(c *fiber.Ctx) error {
	username, err := pathParam(c, "username")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.service.GetUserByUsername(c.UserContext(), username)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, user)
}

// HandleGetUserByEmail retrieves a single user by email.
func (h *UserHandler) HandleGetUserByEmail(c *fiber.Ctx) error {
	email, err := pathParam(c, "email")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.service.GetUserByEmail(c.UserContext(), email)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, user)
}

// HandleUpdateUser applies a partial update.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, errInvalidBody)
	}

	user, err := h.service.UpdateUser(c.UserContext(), c.Params("id"), services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, user)
}

// HandleDeleteUser soft-deletes a user and answers 204 with no body.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// pathParam returns the percent-decoded route parameter. Fiber leaves path
// parameters escaped.
func pathParam(c *fiber.Ctx, name string) (string, error) {
	value, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return "", apperror.Validation(name, name+" is not a valid path segment")
	}
	return value, nil
}
