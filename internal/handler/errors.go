package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/registry"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

// errorKinds maps each domain error to its HTTP status and stable code.
var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{ticketing.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{ticketing.ErrNotFound, http.StatusNotFound, "not_found"},
	{ticketing.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{ticketing.ErrAlreadyInitialized, http.StatusConflict, "already_initialized"},
	{ticketing.ErrSoldOut, http.StatusConflict, "sold_out"},
	{ticketing.ErrIncorrectPayment, http.StatusUnprocessableEntity, "incorrect_payment"},
	{ticketing.ErrDeadlinePassed, http.StatusConflict, "deadline_passed"},
	{ticketing.ErrInvalidPercentage, http.StatusBadRequest, "invalid_percentage"},
	{ticketing.ErrArithmeticOverflow, http.StatusUnprocessableEntity, "arithmetic_overflow"},
	{ticketing.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{ticketing.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{ticketing.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
	{registry.ErrNotFound, http.StatusNotFound, "not_found"},
	{registry.ErrInvalidName, http.StatusBadRequest, "invalid_name"},
	{model.ErrInvalidAddress, http.StatusBadRequest, "invalid_address"},
}

// writeError renders err as {"error","code"}.  Unknown errors are logged and
// reported as 500 without detail.
func writeError(c echo.Context, err error) error {
	return writeErrorWith(c, err, nil)
}

// writeErrorWith is writeError with extra fields merged into the body, for
// failures that still changed state the client must know about.
func writeErrorWith(c echo.Context, err error, extra echo.Map) error {
	status, body := errorBody(c, err)
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}

func errorBody(c echo.Context, err error) (int, echo.Map) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, echo.Map{"error": "validation failed", "code": "validation", "fields": verrs}
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, echo.Map{"error": err.Error(), "code": k.code}
		}
	}
	// unmapped: log the cause, hide it from the client
	zap.L().Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"}
}
