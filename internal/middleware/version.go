package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/leadchat-io/leadchat/internal/types"
)

// VersionMiddleware parses the X-Api-Version header, stores it in context,
// and rejects unsupported major versions.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", "1.0.0")

		// Support version aliases
		if version == "1.0" || version == "1" {
			version = "1.0.0"
		}

		if !strings.HasPrefix(version, "1.") {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: "Unsupported API version: " + version,
				Type:    "version",
			}
		}

		// Store version in context
		c.Locals("apiVersion", version)

		return c.Next()
	}
}
