package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BallDevTools/telegram-bot/internal/domain"
)

// ResultCache holds the most recent analysis. Load returns (nil, nil) on a
// miss or after the entry expired.
type ResultCache interface {
	Load(ctx context.Context) (*domain.Analysis, error)
	Store(ctx context.Context, a domain.Analysis) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type memoryEntry struct {
	analysis domain.Analysis
	storedAt time.Time
}

// MemoryResultCache keeps one analysis in process. Safe for concurrent use.
type MemoryResultCache struct {
	ttl   time.Duration
	now   func() time.Time
	entry atomic.Pointer[memoryEntry]
}

// NewMemoryResultCache returns a cache whose entries expire after ttl. A
// non-positive ttl never expires.
func NewMemoryResultCache(ttl time.Duration) *MemoryResultCache {
	return &MemoryResultCache{ttl: ttl, now: time.Now}
}

func (c *MemoryResultCache) Load(_ context.Context) (*domain.Analysis, error) {
	e := c.entry.Load()
	if e == nil {
		return nil, nil
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl {
		return nil, nil
	}
	a := e.analysis
	return &a, nil
}

func (c *MemoryResultCache) Store(_ context.Context, a domain.Analysis) error {
	c.entry.Store(&memoryEntry{analysis: a, storedAt: c.now()})
	return nil
}

// RedisResultCache stores the analysis as JSON under one key per
// symbol and interval.
type RedisResultCache struct {
	client RedisClient
	key    string
	ttl    time.Duration
}

func NewRedisResultCache(client RedisClient, symbol, interval string, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{
		client: client,
		key:    ResultKey(symbol, interval),
		ttl:    ttl,
	}
}

func ResultKey(symbol, interval string) string {
	return fmt.Sprintf("analysis:latest:%s:%s", strings.ToUpper(symbol), interval)
}

func (c *RedisResultCache) Load(ctx context.Context) (*domain.Analysis, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c.key, err)
	}
	var a domain.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode cached analysis: %w", err)
	}
	return &a, nil
}

func (c *RedisResultCache) Store(ctx context.Context, a domain.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}
