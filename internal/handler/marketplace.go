package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// List handles POST /v1/events/:id/tickets/:ticket/list.  The owner of a
// claimed ticket offers it for resale at the JSON body's "price", which must
// be positive.  On success the updated ticket (status LISTED) is returned.
func (h *EventHandler) List(c echo.Context) error {
	call, ticketID, ok, err := ticketCall(c)
	if !ok {
		return err
	}
	var req priceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Engine.ListForResale(ctx, call, ticketID, req.Price); err != nil {
		return writeError(c, err)
	}
	return h.ticket(c, call.Instance, ticketID)
}

// Delist handles POST /v1/events/:id/tickets/:ticket/delist.  It withdraws
// the caller's listing and returns the ticket, CLAIMED again with no price.
func (h *EventHandler) Delist(c echo.Context) error {
	call, ticketID, ok, err := ticketCall(c)
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Engine.DelistResale(ctx, call, ticketID); err != nil {
		return writeError(c, err)
	}
	return h.ticket(c, call.Instance, ticketID)
}

// Buy handles POST /v1/events/:id/tickets/:ticket/buy.  The payment must
// equal the listed price and is taken from the caller's wallet.  The
// response is the receipt showing the royalty paid to the organizer and
// the seller's take.  Sellers cannot buy their own listing.
func (h *EventHandler) Buy(c echo.Context) error {
	call, ticketID, ok, err := ticketCall(c)
	if !ok {
		return err
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	// The whole exchange (payment, split, token move) is one atomic unit.
	receipt, err := h.Engine.BuyResale(ctx, call, ticketID, req.Payment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, receipt)
}
