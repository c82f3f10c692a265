package config

// Redis is used for distributed rate limiting and HTTP response caching.
// If the connection fails during startup, NewRedisClient returns nil and
// callers degrade gracefully by disabling caching and rate limiting.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// RedisConfig holds the client parameters.
//
//	REDIS_ENABLED – connect at all
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand, used when host/port are not both set
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TLS      bool
}

func loadRedisConfig(v *viper.Viper) RedisConfig {
	addr := v.GetString("redis_addr")
	if host, port := v.GetString("redis_host"), v.GetString("redis_port"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	return RedisConfig{
		Enabled:  v.GetBool("redis_enabled"),
		Addr:     addr,
		Password: v.GetString("redis_password"),
		DB:       v.GetInt("redis_db"),
		TLS:      v.GetBool("redis_tls"),
	}
}

// NewRedisClient instantiates a Redis client.  The returned client is nil if
// Redis is disabled or a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout.  Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
