package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/middleware"
	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/registry"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

// EventHandler exposes the ticketing engine over HTTP.  Every mutating
// route acts on behalf of the address carried by the caller's access token.
type EventHandler struct {
	Engine   *ticketing.Engine
	Registry *registry.Service
	Timeout  time.Duration
}

// NewEventHandler panics if engine or reg is nil.
func NewEventHandler(engine *ticketing.Engine, reg *registry.Service, timeout time.Duration) *EventHandler {
	if engine == nil || reg == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Engine: engine, Registry: reg, Timeout: timeout}
}

type deployResp struct {
	Instance      uint64        `json:"instance_id"`
	Creator       model.Address `json:"creator"`
	Contract      model.Address `json:"contract"`
	RegistryIndex *uint64       `json:"registry_index,omitempty"`
}

// Deploy handles POST /v1/events.  A non-empty name also registers the new
// instance in the event registry.
func (h *EventHandler) Deploy(c echo.Context) error {
	addr, ok := middleware.CallerAddress(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	var req deployReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return writeError(c, err)
	}
	// Reject a bad name before anything is created.
	if req.Name != "" {
		if err := registry.ValidateName(req.Name); err != nil {
			return writeError(c, err)
		}
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	inst, err := h.Engine.Deploy(ctx, addr)
	if err != nil {
		return writeError(c, err)
	}
	resp := deployResp{Instance: inst.ID, Creator: inst.Creator, Contract: inst.Contract()}
	if req.Name != "" {
		idx, err := h.Registry.Register(ctx, inst.ID, req.Name)
		if err != nil {
			// The instance exists regardless; hand its id back with the
			// failure so the client can keep using it.
			zap.L().Warn("registry append failed", zap.Uint64("instance_id", inst.ID), zap.Error(err))
			return writeErrorWith(c, err, echo.Map{
				"instance_id": inst.ID,
				"creator":     inst.Creator,
				"contract":    inst.Contract(),
			})
		}
		resp.RegistryIndex = &idx
	}
	return c.JSON(http.StatusCreated, resp)
}

// Configure handles POST /v1/events/:id/configure.  The authenticated
// caller becomes the organizer; the body carries no organizer field.
func (h *EventHandler) Configure(c echo.Context) error {
	call, ok, err := instanceCall(c)
	if !ok {
		return err
	}
	var req configureReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	err = h.Engine.ConfigureEvent(ctx, call, ticketing.EventParams{
		Price:                req.Price,
		Supply:               req.Supply,
		CancellationDeadline: req.CancellationDeadline,
		PenaltyPercentage:    pctOr(req.PenaltyPercentage, defaultPenaltyPercentage),
		RoyaltyPercentage:    pctOr(req.RoyaltyPercentage, defaultRoyaltyPercentage),
	})
	if err != nil {
		return writeError(c, err)
	}
	return h.summary(c, call.Instance, http.StatusOK)
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid event id")
	}
	return h.summary(c, id, http.StatusOK)
}

func (h *EventHandler) summary(c echo.Context, id uint64, status int) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	s, err := h.Engine.EventSummary(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(status, s)
}

// Balance handles GET /v1/events/:id/balance.
func (h *EventHandler) Balance(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid event id")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	bal, err := h.Engine.ContractBalance(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"instance_id": id,
		"contract":    model.ContractAddress(id),
		"balance":     bal,
	})
}

// Withdraw handles POST /v1/events/:id/withdraw (organizer only).
func (h *EventHandler) Withdraw(c echo.Context) error {
	call, ok, err := instanceCall(c)
	if !ok {
		return err
	}
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Engine.WithdrawFunds(ctx, call, req.Amount); err != nil {
		return writeError(c, err)
	}
	bal, err := h.Engine.ContractBalance(ctx, call.Instance)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"withdrawn": req.Amount, "balance": bal})
}
