package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cdmworks/golden-keys-api/internal/models"
	appErrors "github.com/cdmworks/golden-keys-api/pkg/errors"
)

const (
	snapshotKeyPending  = "golden-keys:snapshot:pending"
	snapshotKeyApproved = "golden-keys:snapshot:approved"
)

// SnapshotCache caches gateway fetch results in Redis. It implements the
// invalidate-and-reload contract: every successful mutation must call
// Invalidate so the next List re-fetches from the source of truth. A nil
// client disables caching entirely.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache constructs the cache.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCache{client: client, ttl: ttl, logger: logger}
}

// GetPending returns the cached pending set or ErrCacheMiss.
func (c *SnapshotCache) GetPending(ctx context.Context) ([]models.GoldenKey, error) {
	return c.get(ctx, snapshotKeyPending)
}

// GetApproved returns the cached approved set or ErrCacheMiss.
func (c *SnapshotCache) GetApproved(ctx context.Context) ([]models.GoldenKey, error) {
	return c.get(ctx, snapshotKeyApproved)
}

// SetPending stores the pending set with the configured TTL.
func (c *SnapshotCache) SetPending(ctx context.Context, keys []models.GoldenKey) error {
	return c.set(ctx, snapshotKeyPending, keys)
}

// SetApproved stores the approved set with the configured TTL.
func (c *SnapshotCache) SetApproved(ctx context.Context, keys []models.GoldenKey) error {
	return c.set(ctx, snapshotKeyApproved, keys)
}

// Invalidate drops both snapshots.
func (c *SnapshotCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, snapshotKeyPending, snapshotKeyApproved).Err(); err != nil {
		c.logger.Warn("failed to invalidate golden key snapshots", zap.Error(err))
	}
}

func (c *SnapshotCache) get(ctx context.Context, key string) ([]models.GoldenKey, error) {
	if c.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var keys []models.GoldenKey
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
	}
	return keys, nil
}

func (c *SnapshotCache) set(ctx context.Context, key string, keys []models.GoldenKey) error {
	if c.client == nil {
		return nil
	}
	payload, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
