package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/core/usecases"
	"github.com/samirrijal/voltfinder/internal/mapcore/provider"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, unavailable, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFrom maps a service error onto its HTTP status.
func errFrom(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecases.ErrSessionNotFound), errors.Is(err, ports.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, usecases.ErrInvalidStatus), errors.Is(err, usecases.ErrInvalidZoom):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrNoSurface), errors.Is(err, usecases.ErrThemeUnsupported):
		return newError(c, fiber.StatusConflict, "conflict", err.Error())
	case errors.Is(err, provider.ErrNoEngine):
		return errUnavailable(c, err.Error())
	}
	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return errInternal(c, err.Error())
}
