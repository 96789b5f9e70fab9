package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/utils"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	// Roles lists the roles allowed to call the handler. Empty means any authenticated caller.
	Roles []credit.Role
}

// WithAuth wraps a handler with authentication and role guards for a single route.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	allowed := make(map[credit.Role]struct{}, len(opts.Roles))
	for _, role := range opts.Roles {
		if normalized := credit.ParseRole(string(role)); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if len(allowed) == 0 {
			return handler(c)
		}

		currentRole := credit.ParseRole(normalizeRoleValue(c.Locals("user_role")))
		if _, ok := allowed[currentRole]; !ok {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}

		return handler(c)
	}
}
