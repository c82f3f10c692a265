package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CacheConfig drives the registry read cache (CACHE_*).  KeyStrategy is
// route, path_query or route_query; MaxBodyBytes of 0 caches any size.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func loadCacheConfig(v *viper.Viper) CacheConfig {
	ttl := v.GetDuration("cache_ttl")
	if ttl <= 0 {
		ttl = time.Second
	}
	return CacheConfig{
		Enabled:      v.GetBool("cache_enabled"),
		Methods:      parseMethods(v.GetString("cache_methods")),
		TTL:          ttl,
		KeyStrategy:  v.GetString("cache_key_strategy"),
		Prefix:       v.GetString("cache_prefix"),
		MaxBodyBytes: v.GetInt("cache_max_body_bytes"),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
