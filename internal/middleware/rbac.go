package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...credit.Role) fiber.Handler {
	allowed := make(map[credit.Role]struct{}, len(roles))
	for _, role := range roles {
		if normalized := credit.ParseRole(string(role)); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role := credit.ParseRole(normalizeRoleValue(c.Locals("user_role")))
		if _, ok := allowed[role]; !ok {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return c.Next()
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case credit.Role:
		return strings.ToLower(strings.TrimSpace(string(v)))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		if value == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}
