package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	powerchain "power-assets/internal/powerchain/domain"
)

const defaultPrefix = "power-assets:chain"

// Cache keeps power chain payloads in redis. Entries are keyed by a
// generation counter so one INCR invalidates every cached chain.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option configures the cache.
type Option func(*Cache)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// New wraps a redis client.
func New(client *redis.Client, ttl time.Duration, opts ...Option) (*Cache, error) {
	if client == nil {
		return nil, errors.New("chain cache: nil client")
	}
	if ttl <= 0 {
		return nil, errors.New("chain cache: ttl must be positive")
	}
	c := &Cache{client: client, prefix: defaultPrefix, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dial parses a redis URL and verifies the server answers.
func Dial(ctx context.Context, url string, ttl time.Duration, opts ...Option) (*Cache, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("chain cache: parse url: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("chain cache: ping: %w", err)
	}
	return New(client, ttl, opts...)
}

// Close releases the client.
func (c *Cache) Close() error { return c.client.Close() }

func (c *Cache) generationKey() string { return c.prefix + ":gen" }

func (c *Cache) key(generation int64, start int64) string {
	return fmt.Sprintf("%s:%d:%d", c.prefix, generation, start)
}

func (c *Cache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached chain or nil on a miss.
func (c *Cache) Get(ctx context.Context, start int64) (*powerchain.Graph, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain cache: generation: %w", err)
	}
	raw, err := c.client.Get(ctx, c.key(gen, start)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chain cache: get: %w", err)
	}
	var graph powerchain.Graph
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, fmt.Errorf("chain cache: decode: %w", err)
	}
	return &graph, nil
}

// Set stores a chain under the current generation.
func (c *Cache) Set(ctx context.Context, start int64, graph *powerchain.Graph) error {
	if graph == nil {
		return nil
	}
	gen, err := c.generation(ctx)
	if err != nil {
		return fmt.Errorf("chain cache: generation: %w", err)
	}
	raw, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("chain cache: encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(gen, start), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("chain cache: set: %w", err)
	}
	return nil
}

// Invalidate retires every cached chain. Old entries expire with their TTL.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("chain cache: invalidate: %w", err)
	}
	return nil
}
