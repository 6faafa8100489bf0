// Package cache stores project detail responses in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/pkg/metrics"
)

const keyPrefix = "project:detail:"

func Key(projectID string) string {
	return keyPrefix + projectID
}

// ProjectCache is a read-through cache for project details. Redis errors
// are logged and treated as misses.
type ProjectCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProjectCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProjectCache {
	return &ProjectCache{client: client, ttl: ttl, logger: logger}
}

func (c *ProjectCache) Get(ctx context.Context, projectID string) (model.Project, bool) {
	raw, err := c.client.Get(ctx, Key(projectID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("project cache read failed", zap.String("project_id", projectID), zap.Error(err))
			metrics.IncrementCacheLookup("error")
		} else {
			metrics.IncrementCacheLookup("miss")
		}
		return model.Project{}, false
	}

	var p model.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("dropping undecodable cache entry", zap.String("project_id", projectID), zap.Error(err))
		c.Invalidate(ctx, projectID)
		metrics.IncrementCacheLookup("error")
		return model.Project{}, false
	}
	if p.Milestones == nil {
		p.Milestones = []model.Milestone{}
	}
	metrics.IncrementCacheLookup("hit")
	return p, true
}

func (c *ProjectCache) Set(ctx context.Context, p model.Project) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, Key(p.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("project cache write failed", zap.String("project_id", p.ID), zap.Error(err))
	}
}

func (c *ProjectCache) Invalidate(ctx context.Context, projectID string) {
	if err := c.client.Del(ctx, Key(projectID)).Err(); err != nil {
		c.logger.Warn("project cache invalidate failed", zap.String("project_id", projectID), zap.Error(err))
	}
}
