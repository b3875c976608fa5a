// Package cache keeps read-mostly directory data in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/redis/go-redis/v9"
)

// DepartmentsKey is the Redis key holding the department directory
const DepartmentsKey = "grievance:departments"

// NewClient connects to Redis from a redis:// URL and pings it
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// DepartmentCache stores the department list as one JSON value
type DepartmentCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewDepartmentCache creates a cache over client
func NewDepartmentCache(client redis.Cmdable, ttl time.Duration) *DepartmentCache {
	return &DepartmentCache{client: client, ttl: ttl}
}

// Get returns the cached list. A miss returns ok == false and no error.
func (c *DepartmentCache) Get(ctx context.Context) ([]models.Department, bool, error) {
	raw, err := c.client.Get(ctx, DepartmentsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var depts []models.Department
	if err := json.Unmarshal(raw, &depts); err != nil {
		return nil, false, fmt.Errorf("decode cached departments: %w", err)
	}
	return depts, true, nil
}

// Set stores the list for the cache TTL
func (c *DepartmentCache) Set(ctx context.Context, depts []models.Department) error {
	raw, err := json.Marshal(depts)
	if err != nil {
		return fmt.Errorf("encode departments: %w", err)
	}
	return c.client.Set(ctx, DepartmentsKey, raw, c.ttl).Err()
}

// Ping checks the Redis connection
func (c *DepartmentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Invalidate drops the cached list
func (c *DepartmentCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, DepartmentsKey).Err()
}
