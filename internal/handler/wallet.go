package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/middleware"
)

// Wallet handles GET /v1/wallet and returns the spendable balance of the
// caller's address.  Addresses without any movement report zero.
func (h *EventHandler) Wallet(c echo.Context) error {
	addr, ok := middleware.CallerAddress(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	w, err := h.Engine.Wallet(ctx, addr)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, w)
}

// Transfers handles GET /v1/wallet/transfers?limit=N.  It lists journal
// entries sent or received by the caller, newest first.  Out-of-range
// limits fall back to the engine default.
func (h *EventHandler) Transfers(c echo.Context) error {
	addr, ok := middleware.CallerAddress(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	list, err := h.Engine.Transfers(ctx, addr, queryInt(c, "limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// Deposit handles POST /v1/admin/wallets/:address/deposit.  It credits
// an account wallet out of thin air and is mounted behind the ADMIN role.
func (h *EventHandler) Deposit(c echo.Context) error {
	to, err := parseAddressParam(c, "address")
	if err != nil {
		return writeError(c, err)
	}
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	w, err := h.Engine.Deposit(ctx, to, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	// Credits are audited with the acting admin's user id.
	zap.L().Info("wallet deposit",
		zap.String("to", to.String()),
		zap.Uint64("amount", req.Amount),
		zap.Any("by", c.Get(middleware.CtxUserID)))
	return c.JSON(http.StatusOK, w)
}
