package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/config"
)

// bucketScript refills and takes one token from the bucket in KEYS[1].
// Time comes from the Redis server so every replica shares one clock.
// Reply: {allowed (0|1), remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'stamp'))
if tokens == nil or stamp == nil then
	tokens, stamp = capacity, now
end

local steps = math.floor(math.max(0, now - stamp) / interval)
if steps > 0 then
	tokens = math.min(capacity, tokens + steps * refill)
	stamp = stamp + steps * interval
end

local allowed, wait = 0, 0
if tokens >= 1 then
	allowed, tokens = 1, tokens - 1
else
	wait = math.max(0, interval - (now - stamp))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

type bucketResult struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func takeToken(c echo.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketResult, error) {
	vals, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return bucketResult{}, err
	}
	if len(vals) != 3 {
		return bucketResult{}, redis.Nil
	}
	return bucketResult{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		retry:     time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket throttles requests per key (see buildRateKey).  A disabled
// config or a nil client yields a pass-through, and Redis failures let the
// request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	if log == nil {
		log = zap.NewNop()
	}
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := takeToken(c, rdb, cfg, key)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}

			// round up so clients never retry early
			secs := int64((res.retry + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.FormatInt(secs, 10))
			if cfg.Debug {
				log.Info("rate limited", zap.String("key", key), zap.Duration("retry", res.retry))
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"code":        "rate_limited",
				"retry_after": secs,
			})
		}
	}
}

// buildRateKey joins the parts named by cfg.KeyStrategy, an underscore list
// drawn from ip, user and route (e.g. "ip_route").  Unknown or empty
// strategies use all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	names := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
	parts := []string{cfg.Prefix}
	for _, n := range names {
		switch n {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			parts = append(parts, "ip", ip)
		case "user":
			parts = append(parts, "user", currentUserID(c))
		case "route":
			parts = append(parts, "route", c.Request().Method+" "+c.Path())
		default:
			return buildRateKey(config.RateLimitConfig{Prefix: cfg.Prefix, KeyStrategy: "ip_user_route"}, c)
		}
	}
	return strings.Join(parts, ":")
}
