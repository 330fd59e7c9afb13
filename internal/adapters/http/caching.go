package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses and answers
// If-None-Match with 304 using a weak ETag of the body. Session state is
// live and never cached.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() != fiber.MethodGet {
			return nil
		}

		if c.GetRespHeader(fiber.HeaderCacheControl) == "" {
			if ttl := cacheControlFor(c.Path()); ttl != "" {
				c.Set(fiber.HeaderCacheControl, ttl)
			}
		}

		body := c.Response().Body()
		if c.Response().StatusCode() != fiber.StatusOK || len(body) == 0 {
			return nil
		}
		sum := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(sum[:8]) + `"`
		c.Set(fiber.HeaderETag, etag)
		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}

func cacheControlFor(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics", strings.HasPrefix(path, "/v1/sessions"):
		return "no-store"
	case strings.HasPrefix(path, "/v1/clusters"):
		return "public, max-age=30"
	case strings.HasPrefix(path, "/v1/stations/nearby"):
		return "public, max-age=30"
	case strings.HasPrefix(path, "/v1/stations/"):
		return "public, max-age=60"
	case strings.HasPrefix(path, "/docs"):
		return "public, max-age=3600"
	}
	return ""
}
