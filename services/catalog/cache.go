package catalog

import (
	"context"
	"encoding/json"
	"time"

	"magicweekends/models"
	"magicweekends/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CachedTripProvider is a Redis read-through cache in front of another provider.
// Cache failures are logged and never fail the lookup.
type CachedTripProvider struct {
	Next   TripProvider
	Client *redis.Client
	TTL    time.Duration
}

func NewCachedTripProvider(next TripProvider, client *redis.Client, ttl time.Duration) *CachedTripProvider {
	return &CachedTripProvider{Next: next, Client: client, TTL: ttl}
}

func tripCacheKey(id string, tripType models.TripType) string {
	return utils.TripCachePrefix + string(tripType) + ":" + id
}

func (c *CachedTripProvider) GetTrip(ctx context.Context, id string, tripType models.TripType) (*models.TripSnapshot, error) {
	logger := utils.GetLogger()
	key := tripCacheKey(id, tripType)

	data, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var trip models.TripSnapshot
		if err := json.Unmarshal(data, &trip); err == nil {
			return &trip, nil
		}
		logger.Warn("Discarding corrupt cached trip", zap.String("key", key))
	case err != redis.Nil:
		logger.Warn("Trip cache read failed", zap.String("key", key), zap.Error(err))
	}

	trip, err := c.Next.GetTrip(ctx, id, tripType)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(trip); err == nil {
		if err := c.Client.Set(ctx, key, payload, c.TTL).Err(); err != nil {
			logger.Warn("Trip cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return trip, nil
}
