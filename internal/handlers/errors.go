package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"ifc-service/internal/middleware"
	"ifc-service/internal/services"
)

const (
	InvalidUUIDError = "invalid UUID"
	NotFoundError    = "not found"
)

var errInvalidUUID = errors.New(InvalidUUIDError)

// paramUUID parses the named route parameter.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errInvalidUUID
	}
	return id, nil
}

// respondError maps service errors onto HTTP responses.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": true, "message": verr.Error(), "errors": verr.Fields,
		})
	case errors.Is(err, errInvalidUUID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUUIDError,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": NotFoundError,
		})
	}

	log.Error().Err(err).
		Str("request_id", middleware.GetRequestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": true, "message": "internal error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": true, "message": message,
	})
}

// ErrorHandler renders errors that escaped a handler, such as unknown routes,
// in the same body shape as handled errors.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": true, "message": fiberErr.Message,
			})
		}
		return respondError(c, log, err)
	}
}
