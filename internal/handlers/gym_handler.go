package handlers

import (
	"log/slog"

	"gymhub/internal/logging"
	"gymhub/internal/models"
	"gymhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// GymHandler handles HTTP requests for gyms.
type GymHandler struct {
	service *services.GymService
	logger  *slog.Logger
}

// NewGymHandler creates a new GymHandler.
func NewGymHandler(service *services.GymService, logger *slog.Logger) *GymHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &GymHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the gym routes, all behind guard.
func (h *GymHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	gymRoutes := router.Group("/gyms", guard)
	gymRoutes.Get("/", h.HandleGetGyms)
	gymRoutes.Get("/:id", h.HandleGetGymByID)
	gymRoutes.Post("/", h.HandleCreateGym)
	gymRoutes.Put("/:id", h.HandleUpdateGym)
	gymRoutes.Delete("/:id", h.HandleDeleteGym)
	gymRoutes.Post("/:id/restore", h.HandleRestoreGym)
}

// GymRequest represents the request body for creating or replacing a gym.
type GymRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (r GymRequest) toModel(id string) *models.Gym {
	return &models.Gym{ID: id, Name: r.Name, Address: r.Address, Phone: r.Phone}
}

// HandleGetGyms retrieves all gyms.
func (h *GymHandler) HandleGetGyms(c *fiber.Ctx) error {
	gyms, err := h.service.GetAllGyms(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, gyms)
}

// HandleGetGymByID retrieves a single gym by its ID.
func (h *GymHandler) HandleGetGymByID(c *fiber.Ctx) error {
	gym, err := h.service.GetGymByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, gym)
}

// HandleCreateGym creates a new gym.
func (h *GymHandler) HandleCreateGym(c *fiber.Ctx) error {
	var req GymRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, errInvalidBody)
	}

	gym := req.toModel("")
	if err := h.service.CreateGym(c.UserContext(), gym); err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusCreated, gym)
}

// HandleUpdateGym replaces the editable fields of a gym.
func (h *GymHandler) HandleUpdateGym(c *fiber.Ctx) error {
	var req GymRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, errInvalidBody)
	}

	gym, err := h.service.UpdateGym(c.UserContext(), req.toModel(c.Params("id")))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, gym)
}

// HandleDeleteGym soft-deletes a gym.
func (h *GymHandler) HandleDeleteGym(c *fiber.Ctx) error {
	if err := h.service.DeleteGym(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRestoreGym undoes a soft delete.
func (h *GymHandler) HandleRestoreGym(c *fiber.Ctx) error {
	gym, err := h.service.RestoreGym(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, gym)
}
