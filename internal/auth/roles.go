package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/domain"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// RequireRole ensures the principal holds one of the allowed roles. Route
// gating only; services still check the access policy per resource.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewNotAuthenticated("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewPermissionDenied("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}
