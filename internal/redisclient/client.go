package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feature-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const runLockKey = "lock:feature-run"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CacheFeatureRecord stores a serialized feature record for online reads
func (c *Client) CacheFeatureRecord(ctx context.Context, rec *models.CustomerFeatureRecord, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal feature record: %w", err)
	}
	key := fmt.Sprintf("features:%s", rec.ExternalCustomerKey)
	return c.rdb.Set(ctx, key, payload, ttl).Err()
}

// GetFeatureRecord retrieves a cached feature record; (nil, nil) on miss
func (c *Client) GetFeatureRecord(ctx context.Context, customerKey string) (*models.CustomerFeatureRecord, error) {
	key := fmt.Sprintf("features:%s", customerKey)
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec models.CustomerFeatureRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached feature record: %w", err)
	}
	return &rec, nil
}

// InvalidateFeatureRecord drops a cached record
func (c *Client) InvalidateFeatureRecord(ctx context.Context, customerKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("features:%s", customerKey)).Err()
}

// AcquireRunLock takes the single-run lock so only one feature
// materialization can be in flight at a time
func (c *Client) AcquireRunLock(ctx context.Context, runID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, runLockKey, runID, ttl).Result()
}

// ReleaseRunLock releases the run lock if still held by this run
func (c *Client) ReleaseRunLock(ctx context.Context, runID string) error {
	holder, err := c.rdb.Get(ctx, runLockKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if holder != runID {
		return nil
	}
	return c.rdb.Del(ctx, runLockKey).Err()
}
