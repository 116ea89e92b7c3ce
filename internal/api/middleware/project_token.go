package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// ProjectTokenHeader carries the project token, the same header the tracking service expects
	ProjectTokenHeader = "project-token"
	projectTokenLocal  = "project_token"
)

// ProjectTokenConfig holds configuration for the project token middleware
type ProjectTokenConfig struct {
	// Header is the request header the token is read from
	Header string
	// Skip bypasses the middleware for matching requests
	Skip func(c *fiber.Ctx) bool
}

// DefaultProjectTokenConfig provides default configuration
func DefaultProjectTokenConfig() ProjectTokenConfig {
	return ProjectTokenConfig{
		Header: ProjectTokenHeader,
	}
}

// ProjectTokenMiddleware rejects requests without a project token. The token
// is not validated here; it is forwarded to the tracking service as is.
func ProjectTokenMiddleware(config ...ProjectTokenConfig) fiber.Handler {
	cfg := DefaultProjectTokenConfig()
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Header == "" {
			cfg.Header = ProjectTokenHeader
		}
	}

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		token := strings.TrimSpace(c.Get(cfg.Header))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing " + cfg.Header + " header",
			})
		}

		c.Locals(projectTokenLocal, token)
		return c.Next()
	}
}

// GetProjectToken retrieves the project token stored by ProjectTokenMiddleware
func GetProjectToken(c *fiber.Ctx) string {
	token, _ := c.Locals(projectTokenLocal).(string)
	return token
}
