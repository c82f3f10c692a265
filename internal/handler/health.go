package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency whose liveness is reported by Health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health returns a health-check endpoint used by load balancers.  With no
// pingers it answers a plain "ok"; otherwise every pinger must respond
// within a second or the endpoint returns 503.
func Health(deps ...Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if len(deps) == 0 {
			return c.String(http.StatusOK, "ok")
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
		defer cancel()
		for _, d := range deps {
			if err := d.PingContext(ctx); err != nil {
				return c.String(http.StatusServiceUnavailable, "unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
