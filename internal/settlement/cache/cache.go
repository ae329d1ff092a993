// Package cache stores FullSettlement snapshots in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "settlement:full"

// Key builds the cache key of one permission scope of a settlement.
func Key(tenantID, settlementID snowflake.ID, scope string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, tenantID, settlementID, scope)
}

func pattern(tenantID, settlementID snowflake.ID) string {
	return fmt.Sprintf("%s:%s:%s:*", keyPrefix, tenantID, settlementID)
}

// New returns a redis cache, or a no-op cache when client is nil.
func New(client *redis.Client, log *zap.Logger) settlementdomain.Cache {
	if client == nil {
		return Nop{}
	}
	return &RedisCache{client: client, log: log.Named("settlement.cache")}
}

type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// corrupt entry; drop it and read through
		c.client.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, tenantID, settlementID snowflake.ID) error {
	var cursor uint64
	match := pattern(tenantID, settlementID)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			c.log.Debug("invalidated settlement cache",
				zap.String("settlement_id", settlementID.String()),
				zap.Int("keys", len(keys)),
			)
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error)               { return false, nil }
func (Nop) Set(context.Context, string, any, time.Duration) error        { return nil }
func (Nop) Invalidate(context.Context, snowflake.ID, snowflake.ID) error { return nil }
