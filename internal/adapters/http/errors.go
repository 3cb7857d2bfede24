package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, planner_denied, etc.
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

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// errFromDomain maps the domain error taxonomy onto HTTP statuses.
func errFromDomain(c *fiber.Ctx, err error) error {
	kind := domain.Kind(err)
	switch kind {
	case "validation":
		return newError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	case "unknown_action":
		return newError(c, fiber.StatusBadRequest, kind, err.Error())
	case "not_found":
		return errNotFound(c, err.Error())
	case "planner_unavailable":
		return newError(c, fiber.StatusServiceUnavailable, kind, err.Error())
	case "planner_denied", "planner_response", "network", "upstream_protocol":
		return newError(c, fiber.StatusBadGateway, kind, err.Error())
	default:
		logging.FromContext(c.UserContext()).ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
		return newError(c, fiber.StatusInternalServerError, "internal_error", "internal error")
	}
}
