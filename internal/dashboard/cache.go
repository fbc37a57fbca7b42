package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "charts:version"
	bumpChannel     = "charts.bump"
	localEntries    = 256
)

// Cache wraps Redis based caching with versioning controls. Rendered charts
// are additionally memoised in-process; keys embed the cache version, so a
// bump makes stale local entries unreachable.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	local  *lru.Cache[string, []byte]
}

// NewCache instantiates the cache helper. A nil client disables Redis.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	local, _ := lru.New[string, []byte](localEntries)
	return &Cache{client: client, ttl: ttl, local: local}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchBytes loads a cached payload or populates it using the loader.
func (c *Cache) FetchBytes(ctx context.Context, key string, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if loader == nil {
		return nil, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	if payload, ok := c.local.Get(key); ok {
		return payload, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		c.local.Add(key, payload)
		return payload, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}
	payload, err = loader(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return nil, err
	}
	c.local.Add(key, payload)
	return payload, nil
}

// FetchJSON loads a cached JSON value into dest or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	raw, err := c.FetchBytes(ctx, key, func(ctx context.Context) ([]byte, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the cache by incrementing the global version and publishing an event.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation drops the local memo whenever another instance bumps
// the version.
func (c *Cache) ListenForInvalidation(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				c.local.Purge()
			}
		}
	}()
	return nil
}

func keyChart(req ChartRequest) string {
	return strings.Join([]string{
		"charts", "svg", req.Symbol, req.Timeframe.String(),
		unixToken(req.From), unixToken(req.To),
		fallbackToken(req.Indicator), strconv.Itoa(req.Length),
	}, ":")
}

func keyKlines(req ChartRequest) string {
	return strings.Join([]string{
		"charts", "klines", req.Symbol, req.Timeframe.String(),
		unixToken(req.From), unixToken(req.To),
	}, ":")
}

func unixToken(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func fallbackToken(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
