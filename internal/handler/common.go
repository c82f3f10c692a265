package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-escrow/internal/middleware"
	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

// defaultTimeout bounds storage calls when a handler is built without one.
const defaultTimeout = 5 * time.Second

var errBadID = errors.New("invalid id")

// parseID reads a non-negative integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, errBadID
	}
	return n, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// withTimeout derives the storage context of a request.
func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), d)
}

// caller builds the ticketing call for instance id on behalf of the
// authenticated account.
func caller(c echo.Context, instanceID uint64) (ticketing.Call, bool) {
	addr, ok := middleware.CallerAddress(c)
	if !ok {
		return ticketing.Call{}, false
	}
	return ticketing.Call{Instance: instanceID, Caller: addr}, true
}

// instanceCall parses the :id parameter and resolves the caller.  On failure
// the error response has already been written and ok is false.
func instanceCall(c echo.Context) (call ticketing.Call, ok bool, err error) {
	id, perr := parseID(c, "id")
	if perr != nil {
		return call, false, badRequest(c, "invalid event id")
	}
	call, ok = caller(c, id)
	if !ok {
		return call, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	return call, true, nil
}

// ticketCall is instanceCall plus the :ticket parameter.
func ticketCall(c echo.Context) (call ticketing.Call, ticketID uint64, ok bool, err error) {
	call, ok, err = instanceCall(c)
	if !ok {
		return call, 0, false, err
	}
	ticketID, perr := parseID(c, "ticket")
	if perr != nil {
		return call, 0, false, badRequest(c, "invalid ticket id")
	}
	return call, ticketID, true, nil
}

func parseAddressParam(c echo.Context, name string) (model.Address, error) {
	return model.ParseAddress(c.Param(name))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad_request"})
}
