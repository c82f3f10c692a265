package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-escrow/internal/handler"
	"github.com/iliyamo/ticket-escrow/internal/middleware"
	"github.com/iliyamo/ticket-escrow/internal/model"
)

// Guards are the middlewares shared by route groups.  RateLimit applies to
// every /v1 route and Cache to the public registry reads.  Nil entries are
// skipped.
type Guards struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func (g Guards) with(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw)+1)
	if g.RateLimit != nil {
		out = append(out, g.RateLimit)
	}
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers routes that do not require authentication and
// sit outside /v1.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterAuth registers authentication routes.  Token exchange lives under
// /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	auth := e.Group("/v1/auth", g.with()...)
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)              // rotates the refresh token
	auth.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	auth.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, g.with(middleware.JWTAuth(g.JWTSecret))...)
}

// RegisterEvents registers the ticketing, marketplace and wallet routes.
// All of them act on behalf of the authenticated caller.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, g Guards) {
	v1 := e.Group("/v1", g.with(middleware.JWTAuth(g.JWTSecret))...)

	v1.POST("/events", h.Deploy)
	v1.POST("/events/:id/configure", h.Configure)
	v1.GET("/events/:id", h.Get)
	v1.GET("/events/:id/balance", h.Balance)
	v1.POST("/events/:id/withdraw", h.Withdraw)

	v1.POST("/events/:id/tickets", h.Issue)
	v1.GET("/events/:id/tickets/:ticket", h.GetTicket)
	v1.GET("/events/:id/my-tickets", h.MyTickets)
	v1.POST("/events/:id/tickets/:ticket/claim", h.Claim)
	v1.POST("/events/:id/tickets/:ticket/check-in", h.CheckIn)
	v1.POST("/events/:id/tickets/:ticket/cancel", h.Cancel)

	v1.POST("/events/:id/tickets/:ticket/list", h.List)
	v1.POST("/events/:id/tickets/:ticket/delist", h.Delist)
	v1.POST("/events/:id/tickets/:ticket/buy", h.Buy)

	v1.GET("/wallet", h.Wallet)
	v1.GET("/wallet/transfers", h.Transfers)

	admin := e.Group("/v1/admin", g.with(middleware.JWTAuth(g.JWTSecret), middleware.RequireRole(model.RoleAdmin))...)
	admin.POST("/wallets/:address/deposit", h.Deposit)
}

// RegisterPublic registers unauthenticated browse endpoints.  Registry
// entries are append-only, which keeps cached responses valid.
func RegisterPublic(e *echo.Echo, r *handler.RegistryHandler, g Guards) {
	mw := g.with(g.Cache)
	e.GET("/v1/registry", r.List, mw...)
	e.GET("/v1/registry/:index", r.Get, mw...)
}
