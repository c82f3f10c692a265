package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/config"
)

// cachedResponse is what a registry read leaves in Redis.  Only the content
// type survives; other headers are per-request (request id, rate limit).
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct,omitempty"`
	Body        []byte `json:"b"`
}

func encodeEntry(e cachedResponse) ([]byte, error) { return json.Marshal(e) }

func decodeEntry(bs []byte) (cachedResponse, bool) {
	var e cachedResponse
	if err := json.Unmarshal(bs, &e); err != nil || e.Status == 0 {
		return cachedResponse{}, false
	}
	return e, true
}

// teeWriter forwards to the client and keeps up to limit bytes of the body.
// overflow records that the body did not fit and must not be cached.
type teeWriter struct {
	http.ResponseWriter
	status   int
	limit    int
	buf      bytes.Buffer
	overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the parts of the request selected by cfg.KeyStrategy.
// Query parameters are re-encoded so ?b=1&a=2 and ?a=2&b=1 share an entry.
//
//	route       registered route only
//	path_query  concrete path plus query
//	route_query registered route with concrete params plus query (default)
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	query := r.URL.Query().Encode()

	var sb strings.Builder
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		sb.WriteString(c.Path())
	case "path_query":
		sb.WriteString(r.URL.Path)
		sb.WriteByte('?')
		sb.WriteString(query)
	default:
		sb.WriteString(c.Path())
		for i, name := range c.ParamNames() {
			sb.WriteByte('|')
			sb.WriteString(name)
			sb.WriteByte('=')
			sb.WriteString(c.ParamValues()[i])
		}
		sb.WriteByte('?')
		sb.WriteString(query)
	}
	sum := sha1.Sum([]byte(sb.String()))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache serves repeated reads from Redis.  Registry entries are
// append-only, so a cached 200 never goes stale; anything else is not
// stored.  Redis errors degrade to an uncached request.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c)
			res := c.Response()

			bs, err := rdb.Get(c.Request().Context(), key).Bytes()
			if err != nil && err != redis.Nil {
				zap.L().Debug("cache read failed", zap.String("key", key), zap.Error(err))
			}
			if entry, ok := decodeEntry(bs); err == nil && ok {
				if entry.ContentType != "" {
					res.Header().Set(echo.HeaderContentType, entry.ContentType)
				}
				res.Header().Set("X-Cache", "HIT")
				return c.Blob(entry.Status, entry.ContentType, entry.Body)
			}

			tw := &teeWriter{ResponseWriter: res.Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			res.Writer = tw
			res.Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if tw.status != http.StatusOK || tw.overflow {
				return nil
			}
			payload, err := encodeEntry(cachedResponse{
				Status:      tw.status,
				ContentType: res.Header().Get(echo.HeaderContentType),
				Body:        tw.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(c.Request().Context()), key, payload, ttl).Err(); err != nil {
				zap.L().Debug("cache write failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
