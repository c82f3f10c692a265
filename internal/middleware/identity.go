package middleware

// identity.go holds the helpers that read the caller identity placed in the
// Echo context by JWTAuth.  Rate limiting keys on it and handlers use it
// as the caller of every ticketing operation.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// CallerAddress returns the authenticated caller address, if any.
func CallerAddress(c echo.Context) (model.Address, bool) {
	a, ok := c.Get(CtxAddress).(model.Address)
	if !ok || a.IsZero() {
		return model.Address{}, false
	}
	return a, true
}

// currentUserID returns the user id string set by JWTAuth or "anon".
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
