// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"magicweekends/config"

	"github.com/go-redis/redis/v8"
)

var (
	// WizardCacheClient stores booking wizard sessions.
	WizardCacheClient *redis.Client
	// CacheClient is the generic cache client (catalog trips).
	CacheClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitRedis initializes every Redis client used by the service.
func InitRedis() {
	GetWizardCacheClient()
	GetCacheClient()
}

// GetWizardCacheClient returns the client for wizard sessions.
func GetWizardCacheClient() *redis.Client {
	if WizardCacheClient == nil {
		WizardCacheClient = newRedisClient(config.AppConfig.RedisWizardDB, "Wizard")
	}
	return WizardCacheClient
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	}
	return CacheClient
}
