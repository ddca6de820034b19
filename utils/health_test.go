package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestHealthStatusHealthy(t *testing.T) {
	assert.True(t, HealthStatus{}.Healthy(), "unchecked status is not reported as down")
	assert.True(t, HealthStatus{Redis: []bool{true, true}, CheckedAt: time.Now()}.Healthy())
	assert.False(t, HealthStatus{Redis: []bool{true, false}, Mongo: true, CheckedAt: time.Now()}.Healthy())
}

func TestCheckHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	up := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer up.Close()
	defer down.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer api.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status := checkHealth(ctx, []*redis.Client{up, down}, nil, api.URL)

	assert.Equal(t, []bool{true, false}, status.Redis)
	assert.False(t, status.Mongo)
	assert.True(t, status.BookingAPI, "a 404 still means the API answered")
	assert.False(t, status.Healthy())
}
