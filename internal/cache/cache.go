// Package cache memoizes model service outputs in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/boardinghub/internal/predictor"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = time.Hour

// ErrCorruptEntry marks a cached value that no longer decodes.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// FilterCache stores filter predictions keyed by normalized query.
type FilterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFilterCache constructs a FilterCache. A non-positive ttl uses DefaultTTL.
func NewFilterCache(client *redis.Client, ttl time.Duration) *FilterCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FilterCache{client: client, ttl: ttl}
}

// key returns the Redis key for the given query.
func key(query string) string {
	return "filters:" + strings.ToLower(strings.TrimSpace(query))
}

// Get retrieves a cached prediction.
// Returns nil, nil on a cache miss (not an error).
func (c *FilterCache) Get(ctx context.Context, query string) (*predictor.FilterPrediction, error) {
	val, err := c.client.Get(ctx, key(query)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for query %q: %w", query, err)
	}

	var p predictor.FilterPrediction
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("%w for query %q: %v", ErrCorruptEntry, query, err)
	}

	return &p, nil
}

// Set stores a prediction with the configured TTL.
func (c *FilterCache) Set(ctx context.Context, query string, p *predictor.FilterPrediction) error {
	if p == nil {
		return nil
	}

	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling filters for query %q: %w", query, err)
	}

	if err := c.client.Set(ctx, key(query), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for query %q: %w", query, err)
	}

	return nil
}

// Delete removes the cached entry for the given query.
func (c *FilterCache) Delete(ctx context.Context, query string) error {
	if err := c.client.Del(ctx, key(query)).Err(); err != nil {
		return fmt.Errorf("cache delete for query %q: %w", query, err)
	}
	return nil
}
