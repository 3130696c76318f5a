package budget

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eventure/backend/internal/models"
)

// summaryTTL bounds staleness if an invalidation is ever missed.
const summaryTTL = 5 * time.Minute

// RedisSummaryCache caches budget summaries in Redis. All operations are
// best-effort; Redis failures are logged and swallowed.
type RedisSummaryCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSummaryCache creates a Redis-backed summary cache.
func NewRedisSummaryCache(client *redis.Client, logger *zap.Logger) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, logger: logger}
}

func summaryKey(orgID uuid.UUID, eventID *uuid.UUID) string {
	if eventID != nil {
		return "budget:summary:" + orgID.String() + ":" + eventID.String()
	}
	return "budget:summary:" + orgID.String()
}

func (c *RedisSummaryCache) Get(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID) (models.BudgetSummary, bool) {
	raw, err := c.client.Get(ctx, summaryKey(orgID, eventID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("budget summary cache read failed", zap.Error(err))
		}
		return models.BudgetSummary{}, false
	}
	var s models.BudgetSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.Warn("budget summary cache decode failed", zap.Error(err))
		return models.BudgetSummary{}, false
	}
	return s, true
}

func (c *RedisSummaryCache) Set(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID, s models.BudgetSummary) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, summaryKey(orgID, eventID), raw, summaryTTL).Err(); err != nil {
		c.logger.Warn("budget summary cache write failed", zap.Error(err))
	}
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID) {
	if err := c.client.Del(ctx, summaryKey(orgID, eventID)).Err(); err != nil {
		c.logger.Warn("budget summary cache invalidation failed", zap.Error(err))
	}
}
