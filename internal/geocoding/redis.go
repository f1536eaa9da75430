package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jengzang/geopulse-go/internal/models"
)

const redisKeyPrefix = "geopulse:geocode:"

// RedisCache keeps geocoding results in Redis with an expiry. IDs come
// from a Redis counter so they stay stable while the entry lives.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisCache{client: rdb, ttl: ttl}, nil
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, key string) (*models.ResolvedLocation, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var loc models.ResolvedLocation
	if err := json.Unmarshal([]byte(data), &loc); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached location %s: %w", key, err)
	}
	return &loc, true, nil
}

// Put implements Cache. A concurrent writer that got there first wins.
func (c *RedisCache) Put(ctx context.Context, key string, loc models.ResolvedLocation) (*models.ResolvedLocation, error) {
	id, err := c.client.Incr(ctx, redisKeyPrefix+"seq").Result()
	if err != nil {
		return nil, fmt.Errorf("redis incr: %w", err)
	}
	loc.GeocodingID = &id

	data, err := json.Marshal(loc)
	if err != nil {
		return nil, err
	}
	ok, err := c.client.SetNX(ctx, redisKeyPrefix+key, data, c.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if ok {
		return &loc, nil
	}

	existing, found, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return &loc, nil
	}
	return existing, nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
