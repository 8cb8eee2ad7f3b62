// Package cache keeps the system template listing in Redis. System
// templates change only on seeding or admin edits, while every listing
// request reads them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/wapanel/internal/model"
)

// SystemTemplatesKey holds the JSON-encoded system template list.
const SystemTemplatesKey = "templates:system"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// SystemTemplates caches the full system template list under one key.
type SystemTemplates struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, opts Options) (*SystemTemplates, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return New(client, opts.TTL), nil
}

// New wraps an existing client. A non-positive ttl stores entries without
// expiry.
func New(client *redis.Client, ttl time.Duration) *SystemTemplates {
	if ttl < 0 {
		ttl = 0
	}
	return &SystemTemplates{client: client, ttl: ttl}
}

// Get returns the cached list. ok is false on a cache miss.
func (c *SystemTemplates) Get(ctx context.Context) ([]model.Template, bool, error) {
	data, err := c.client.Get(ctx, SystemTemplatesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get system templates: %w", err)
	}

	var templates []model.Template
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, false, fmt.Errorf("cache: decode system templates: %w", err)
	}
	return templates, true, nil
}

// Set replaces the cached list.
func (c *SystemTemplates) Set(ctx context.Context, templates []model.Template) error {
	if templates == nil {
		templates = []model.Template{}
	}
	data, err := json.Marshal(templates)
	if err != nil {
		return fmt.Errorf("cache: encode system templates: %w", err)
	}
	if err := c.client.Set(ctx, SystemTemplatesKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set system templates: %w", err)
	}
	return nil
}

// Invalidate drops the cached list so the next read goes to the store.
func (c *SystemTemplates) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, SystemTemplatesKey).Err(); err != nil {
		return fmt.Errorf("cache: invalidate system templates: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *SystemTemplates) Close() error {
	return c.client.Close()
}
