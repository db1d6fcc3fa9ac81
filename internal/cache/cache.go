// Package cache provides the key/value store used for the APY value and wallet login nonces.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cleyfe/chaincare/internal/config"
)

// Store is a string key/value store with per-entry expiry.
type Store interface {
	// Get reports whether key holds an unexpired value.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New 根据配置选择缓存实现
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.Size), nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}
