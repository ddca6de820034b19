package utils

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo      bool      `json:"mongo"`
	Redis      []bool    `json:"redis"`
	BookingAPI bool      `json:"bookingApi"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// Healthy reports whether the wizard can serve requests. Sessions live in Redis;
// Mongo and the booking API only degrade reconciliation and submission.
func (h HealthStatus) Healthy() bool {
	if h.CheckedAt.IsZero() {
		return true
	}
	for _, ok := range h.Redis {
		if !ok {
			return false
		}
	}
	return true
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

func checkHealth(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client, apiURL string) HealthStatus {
	var redisHealth []bool
	for _, client := range redisClients {
		redisHealth = append(redisHealth, client.Ping(ctx).Err() == nil)
	}

	mongoHealthy := mongoClient != nil && mongoClient.Ping(ctx, nil) == nil

	apiHealthy := false
	if req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil); err == nil {
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
			apiHealthy = resp.StatusCode < http.StatusInternalServerError
		}
	}

	return HealthStatus{
		Mongo:      mongoHealthy,
		Redis:      redisHealth,
		BookingAPI: apiHealthy,
		CheckedAt:  time.Now(),
	}
}

// StartHealthMonitor performs periodic health checks and updates in-memory state.
func StartHealthMonitor(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client, apiURL string, interval time.Duration) {
	update := func() {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		status := checkHealth(checkCtx, redisClients, mongoClient, apiURL)
		mu.Lock()
		currentHealth = status
		mu.Unlock()
	}

	go func() {
		update()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()
}
