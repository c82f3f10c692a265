package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns a middleware that lets a request through only when
// the authenticated user holds one of roles.  The role is read from the
// context key set by JWTAuth, which must run first.  Any other role, or a
// missing one, is answered with 403 Forbidden.  The router mounts it on
// the admin group so only ADMIN accounts can credit wallets.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Set of accepted roles; a present key is always true.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				// authenticated but not permitted
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "code": "forbidden"})
			}
			return next(c)
		}
	}
}
