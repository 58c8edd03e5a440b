//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/Sternrassler/northwest-bus-cache/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		redisClient.Close()
		container.Terminate(ctx)
	})

	return redisClient
}

func TestUpgradeScenario_RedisStorage(t *testing.T) {
	runUpgradeScenario(t, cache.NewRedisStorage(setupRedis(t)))
}

// TestRedisStorage_SurvivesReconnect checks that regions written through one
// client are visible to a fresh one, as after a proxy restart.
func TestRedisStorage_SurvivesReconnect(t *testing.T) {
	ctx := context.Background()
	client := setupRedis(t)

	first := cache.NewRedisStorage(client)
	region, err := first.Open(ctx, "northwest-bus-v1.0.0")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key := cache.RequestKey{Method: "GET", URL: "https://northwestbus.example/index.html"}
	if err := region.PutAll(ctx, map[cache.RequestKey]*cache.Entry{
		key: {URL: key.URL, StatusCode: 200, Data: []byte("<html>")},
	}); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	second := cache.NewRedisStorage(redis.NewClient(client.Options()))
	entry, err := second.Match(ctx, key)
	if err != nil {
		t.Fatalf("Match after reconnect: %v", err)
	}
	if string(entry.Data) != "<html>" {
		t.Errorf("Unexpected data %q", entry.Data)
	}
}
