package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers may set their own header first.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "no-cache"
		case path == "/metrics":
			ttl = "no-cache"
		case path == "/v1/plans":
			ttl = "private, max-age=0" // grows with every exchange
		case strings.HasPrefix(path, "/v1/plans/"):
			ttl = "private, max-age=3600" // records are immutable
		case path == "/v1/route":
			ttl = "public, max-age=600"
		case path == "/v1/geocode" || path == "/v1/search" || path == "/v1/area":
			ttl = "public, max-age=3600" // OSM data changes slowly
		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=86400"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
