package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Issue handles POST /v1/events/:id/tickets.  The JSON body's "payment"
// must equal the event price and is debited from the caller's wallet.  A
// new PENDING ticket owned by the caller is returned with 201 Created; its
// token stays with the contract until the ticket is claimed.
func (h *EventHandler) Issue(c echo.Context) error {
	call, ok, err := instanceCall(c)
	if !ok {
		return err
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	issued, err := h.Engine.IssueTicket(ctx, call, req.Payment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, issued)
}

// GetTicket handles GET /v1/events/:id/tickets/:ticket and returns the
// ticket's owner, status, token and resale price.
func (h *EventHandler) GetTicket(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid event id")
	}
	ticketID, err := parseID(c, "ticket")
	if err != nil {
		return badRequest(c, "invalid ticket id")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	v, err := h.Engine.TicketInfo(ctx, id, ticketID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// MyTickets handles GET /v1/events/:id/my-tickets, listing the tickets of
// this event owned by the caller in id order.
func (h *EventHandler) MyTickets(c echo.Context) error {
	call, ok, err := instanceCall(c)
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	list, err := h.Engine.TicketsByOwner(ctx, call.Instance, call.Caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list, "owner": call.Caller})
}

// Claim handles POST /v1/events/:id/tickets/:ticket/claim.  The owner of a
// PENDING ticket takes its token out of the contract.
func (h *EventHandler) Claim(c echo.Context) error {
	call, ticketID, ok, err := ticketCall(c)
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Engine.ClaimTicket(ctx, call, ticketID); err != nil {
		return writeError(c, err)
	}
	return h.ticket(c, call.Instance, ticketID)
}

// CheckIn handles POST /v1/events/:id/tickets/:ticket/check-in (organizer
// only).
func (h *EventHandler) CheckIn(c echo.Context) error {
	call, ticketID, ok, err := ticketCall(c)
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Engine.CheckIn(ctx, call, ticketID); err != nil {
		return writeError(c, err)
	}
	return h.ticket(c, call.Instance, ticketID)
}

// Cancel handles POST /v1/events/:id/tickets/:ticket/cancel.  Before the
// event's cancellation deadline the owner gets the price back minus the
// organizer's penalty.  The receipt reports both amounts and whether the
// token had to be reclaimed.
func (h *EventHandler) Cancel(c echo.Context) error {
	call, ticketID, ok, err := ticketCall(c)
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	receipt, err := h.Engine.CancelTicket(ctx, call, ticketID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, receipt)
}

// ticket writes the current view of a ticket after a successful mutation.
func (h *EventHandler) ticket(c echo.Context, instanceID, ticketID uint64) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	v, err := h.Engine.TicketInfo(ctx, instanceID, ticketID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
