package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireAdministrator ensures the caller holds the administrator role.
func RequireAdministrator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.Role.IsAdministrator() {
			return fiber.NewError(http.StatusForbidden, "administrator required")
		}
		return c.Next()
	}
}
