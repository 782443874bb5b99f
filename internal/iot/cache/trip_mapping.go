package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleettrack/internal/domain"
)

// TripMappingTTL bounds how stale a cached tracker -> trip mapping can get
// when no explicit invalidation happens.
const TripMappingTTL = 10 * time.Minute

func tripMappingKey(trackerID int64) string {
	return fmt.Sprintf("tracker:%d:trip", trackerID)
}

type TripMappingCache struct {
	rdb *redis.Client
}

func NewTripMappingCache(rdb *redis.Client) *TripMappingCache {
	return &TripMappingCache{rdb: rdb}
}

func (c *TripMappingCache) Get(ctx context.Context, trackerID int64) (*domain.TripMapping, error) {
	raw, err := c.rdb.Get(ctx, tripMappingKey(trackerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var mapping domain.TripMapping
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (c *TripMappingCache) Set(ctx context.Context, trackerID int64, mapping domain.TripMapping) error {
	b, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, tripMappingKey(trackerID), b, TripMappingTTL).Err()
}

func (c *TripMappingCache) Invalidate(ctx context.Context, trackerID int64) error {
	return c.rdb.Del(ctx, tripMappingKey(trackerID)).Err()
}
