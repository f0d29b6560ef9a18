package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// newRedis builds a client from UPSTASH_REDIS_URL, or from REDIS_ADDR,
// REDIS_USER and REDIS_PASSWORD. REDIS_TLS=0 disables TLS on the split path.
func newRedis() (*redis.Client, error) {
	if url := os.Getenv("UPSTASH_REDIS_URL"); url != "" {
		opt, err := redis.ParseURL(url) // e.g. rediss://default:<token>@host:port
		if err != nil {
			return nil, fmt.Errorf("invalid UPSTASH_REDIS_URL: %w", err)
		}
		if opt.TLSConfig == nil && opt.Network != "unix" && os.Getenv("REDIS_TLS") != "0" {
			opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = 1 * time.Second
		opt.WriteTimeout = 1 * time.Second
		return redis.NewClient(opt), nil
	}

	addr := os.Getenv("REDIS_ADDR") // host:port (no scheme)
	if addr == "" {
		return nil, errors.New("missing Redis config: set UPSTASH_REDIS_URL or REDIS_ADDR")
	}
	opt := &redis.Options{
		Addr:         addr,
		Username:     os.Getenv("REDIS_USER"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
	if os.Getenv("REDIS_TLS") != "0" {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opt), nil
}
