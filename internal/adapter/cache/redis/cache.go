// Package redis stores the latest projected assets so cold readers can be
// served before the ledger is loaded.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is how long a snapshot stays valid without a refresh
	DefaultTTL = 10 * time.Minute

	// SnapshotKey is the key holding the projection snapshot
	SnapshotKey = "ledger:projection:snapshot"
)

// snapshot is the cached value
type snapshot struct {
	Assets   []domain.Asset `json:"assets"`
	StoredAt time.Time      `json:"stored_at"`
}

// ProjectionCache implements domain.ProjectionCache on top of redis
type ProjectionCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewProjectionCache creates a new projection cache.
// A non-positive ttl falls back to DefaultTTL.
func NewProjectionCache(client *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *ProjectionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProjectionCache{
		client: client,
		key:    SnapshotKey,
		ttl:    ttl,
		logger: logger.WithField("component", "cache"),
	}
}

// Get returns the cached snapshot; ok is false on a miss
func (c *ProjectionCache) Get(ctx context.Context) ([]domain.Asset, bool, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("snapshot cache miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached snapshot: %w", err)
	}

	var cached snapshot
	if err := json.Unmarshal(val, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"assets":    len(cached.Assets),
		"stored_at": cached.StoredAt,
	}).Debug("snapshot cache hit")
	return cached.Assets, true, nil
}

// Set replaces the cached snapshot
func (c *ProjectionCache) Set(ctx context.Context, assets []domain.Asset) error {
	data, err := json.Marshal(snapshot{Assets: assets, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached snapshot: %w", err)
	}

	return nil
}

// Invalidate drops the cached snapshot
func (c *ProjectionCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached snapshot: %w", err)
	}
	return nil
}
