package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-escrow/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID  = "user_id" // string form of the user id
	CtxRole    = "role"    // account role
	CtxAddress = "address" // model.Address of the caller
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject, role and address into the request context.
// Handlers read them via c.Get(CtxUserID), c.Get(CtxRole) and
// c.Get(CtxAddress).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, strconv.FormatUint(claims.UserID, 10))
			c.Set(CtxRole, claims.Role)
			c.Set(CtxAddress, claims.Address)
			return next(c)
		}
	}
}
