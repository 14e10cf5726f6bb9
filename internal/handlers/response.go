package handlers

import (
	"errors"
	"log/slog"

	"gymhub/internal/apperror"
	"gymhub/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope returned by every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

var errInvalidBody = apperror.Validation("body", "invalid request body")

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Response{Success: true, Status: status, Data: data})
}

// respondError maps err onto the envelope. Only unclassified errors are
// logged; their text never reaches the client.
func respondError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindValidation, apperror.KindUnauthorized, apperror.KindNotFound, apperror.KindConflict:
		logger.DebugContext(c.UserContext(), "request failed", "kind", kind.String(), "path", c.Path(), "error", err)
	case apperror.KindInternal:
		logging.LogError(logger, "request failed", err, "method", c.Method(), "path", c.Path())
	}

	status := kind.Status()
	return c.Status(status).JSON(Response{Success: false, Status: status, Error: apperror.PublicMessage(err)})
}

// ErrorHandler is the application-wide fiber.ErrorHandler. Framework errors
// such as unknown routes keep their status and message; everything else goes
// through respondError.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(Response{Success: false, Status: fe.Code, Error: fe.Message})
		}
		return respondError(c, logger, err)
	}
}
