package ratelimit

import "time"

type WindowConfig struct {
	Limit  int
	Window time.Duration
}

type RateLimiter interface {
	Allow(key string, config WindowConfig) (bool, error)
	GetRemaining(key string, window time.Duration) (int64, error)
	Reset(key string) error
}
