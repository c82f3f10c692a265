package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-escrow/internal/config"
	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/utils"
)

func protected(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.GET("/p", func(c echo.Context) error {
		addr, ok := CallerAddress(c)
		return c.JSON(http.StatusOK, echo.Map{
			"user": c.Get(CtxUserID), "role": c.Get(CtxRole), "addr": addr.String(), "ok": ok,
		})
	}, mw...)
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	protected(e, JWTAuth("secret"))

	addr := model.Address{7}
	at, err := utils.NewAccessToken("secret", model.User{ID: 9, Role: model.RoleUser, Address: addr}, 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user":"9"`)
	assert.Contains(t, rec.Body.String(), addr.String())

	for _, h := range []string{"", "Bearer nope", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, h)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	protected(e, JWTAuth("secret"), RequireRole(model.RoleAdmin))

	for role, want := range map[string]int{model.RoleAdmin: http.StatusOK, model.RoleUser: http.StatusForbidden} {
		at, err := utils.NewAccessToken("secret", model.User{ID: 1, Role: role, Address: model.Address{1}}, 5)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+at.Token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	protected(e,
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil),
		NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/3/tickets", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/events/:id/tickets")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:POST /v1/events/:id/tickets", buildRateKey(cfg, c))

	c.Set(CtxUserID, "12")
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:12", buildRateKey(cfg, c))
}

func TestEntryRoundTrip(t *testing.T) {
	bs, err := encodeEntry(cachedResponse{Status: http.StatusOK, ContentType: "application/json", Body: []byte(`{"index":0}`)})
	require.NoError(t, err)

	e, ok := decodeEntry(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, e.Status)
	assert.Equal(t, "application/json", e.ContentType)
	assert.Equal(t, `{"index":0}`, string(e.Body))

	_, ok = decodeEntry(bs[:6])
	assert.False(t, ok)
	_, ok = decodeEntry(nil)
	assert.False(t, ok)
}

func TestCacheKeyDependsOnQuery(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/registry")
		return cacheKeyFrom(cfg, c)
	}
	assert.Equal(t, key("/v1/registry?offset=0"), key("/v1/registry?offset=0"))
	assert.NotEqual(t, key("/v1/registry?offset=0"), key("/v1/registry?offset=20"))
	assert.Contains(t, key("/v1/registry"), "cache:")
}

func TestCacheKeyIgnoresQueryOrder(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "path_query"}
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/registry")
		return cacheKeyFrom(cfg, c)
	}
	assert.Equal(t, key("/v1/registry?offset=0&limit=5"), key("/v1/registry?limit=5&offset=0"))

	cfg.KeyStrategy = "route"
	assert.Equal(t, key("/v1/registry?offset=0"), key("/v1/registry?offset=20"))
}
