package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-escrow/internal/registry"
)

// RegistryHandler serves the public event directory.  Its routes need no
// authentication and, being append-only, are safe to cache.
type RegistryHandler struct {
	Registry *registry.Service // directory of deployed instances
	Timeout  time.Duration     // per-request deadline; zero uses defaultTimeout
}

// NewRegistryHandler constructs a RegistryHandler.
func NewRegistryHandler(reg *registry.Service, timeout time.Duration) *RegistryHandler {
	return &RegistryHandler{Registry: reg, Timeout: timeout}
}

// List handles GET /v1/registry?offset=&limit=.  The response carries the
// page of entries, the total count and the offset used, so clients can
// page until offset reaches count.
func (h *RegistryHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	offset := uint64(queryInt(c, "offset", 0))
	items, err := h.Registry.List(ctx, offset, queryInt(c, "limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	count, err := h.Registry.Count(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": count, "offset": offset})
}

// Get handles GET /v1/registry/:index.  Unknown indexes answer 404.
func (h *RegistryHandler) Get(c echo.Context) error {
	idx, err := parseID(c, "index")
	if err != nil {
		return badRequest(c, "invalid index")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	entry, err := h.Registry.Get(ctx, idx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}
