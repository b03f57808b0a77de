package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/models"
)

const trustCacheTTL = 5 * time.Minute

// TrustCache is a read-through cache for user trust state. With no Redis
// client configured every call is a miss and the gate falls back to the
// store, so cache failures never block authorization.
type TrustCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewTrustCache creates a TrustCache. client may be nil.
func NewTrustCache(client *redis.Client, logger *zap.Logger) *TrustCache {
	return &TrustCache{client: client, logger: logger}
}

func trustCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("trust:%s", userID)
}

// Get returns the cached trust state, or (nil, false) on a miss.
func (c *TrustCache) Get(ctx context.Context, userID uuid.UUID) (*models.UserTrust, bool) {
	if c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, trustCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Trust cache read failed", zap.Error(err), zap.String("user_id", userID.String()))
		}
		return nil, false
	}

	var trust models.UserTrust
	if err := json.Unmarshal(raw, &trust); err != nil {
		c.logger.Warn("Trust cache entry corrupt", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, false
	}
	return &trust, true
}

// Set stores the trust state with a short TTL.
func (c *TrustCache) Set(ctx context.Context, trust *models.UserTrust) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(trust)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, trustCacheKey(trust.UserID), raw, trustCacheTTL).Err(); err != nil {
		c.logger.Warn("Trust cache write failed", zap.Error(err), zap.String("user_id", trust.UserID.String()))
	}
}

// Invalidate drops the cached entry after a trust-state mutation.
func (c *TrustCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c.client == nil {
		return
	}

	if err := c.client.Del(ctx, trustCacheKey(userID)).Err(); err != nil {
		c.logger.Warn("Trust cache invalidation failed", zap.Error(err), zap.String("user_id", userID.String()))
	}
}
