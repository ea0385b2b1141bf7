package cache

import (
	"context"
	"errors"
	"time"
)

// 错误定义
var (
	// ErrCacheMiss 键不存在或已过期
	ErrCacheMiss = errors.New("cache: key not found")
)

// Store 键值缓存抽象。分页状态管理器以它为唯一事实来源，
// 实现需保证单键操作原子。
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
