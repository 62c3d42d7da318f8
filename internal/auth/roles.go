package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// RequireStaff ensures the authenticated caller is a staff member.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.IsStaff() {
			return apperrors.NewForbidden("staff role required")
		}
		return c.Next()
	}
}
