package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisDecrementStock(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "stock:test-prod")
	adapter.SetStock(ctx, "test-prod", 10)

	ok, err := adapter.DecrementStock(ctx, "test-prod", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected success")
	}

	stock, _ := client.Get(ctx, "stock:test-prod").Int()
	if stock != 7 {
		t.Errorf("expected stock 7, got %d", stock)
	}
}

func TestRedisDecrementStock_Insufficient(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "stock:test-prod")
	adapter.SetStock(ctx, "test-prod", 5)

	ok, err := adapter.DecrementStock(ctx, "test-prod", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected failure due to insufficient stock")
	}

	stock, _ := client.Get(ctx, "stock:test-prod").Int()
	if stock != 5 {
		t.Errorf("expected stock 5, got %d", stock)
	}
}

func TestRedisDecrementStock_MissingKey(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "stock:test-prod-missing")

	ok, err := adapter.DecrementStock(ctx, "test-prod-missing", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected failure for missing key")
	}
}

func TestRedisDecrementStock_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	initialStock := 20
	totalRequests := 50

	client.Del(ctx, "stock:test-prod-conc")
	adapter.SetStock(ctx, "test-prod-conc", initialStock)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.DecrementStock(ctx, "test-prod-conc", 1)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}

	stock, _ := client.Get(ctx, "stock:test-prod-conc").Int()
	if stock != 0 {
		t.Errorf("expected stock 0, got %d", stock)
	}
}

func TestRedisIncrementStock(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "stock:test-prod")
	adapter.SetStock(ctx, "test-prod", 5)

	if err := adapter.IncrementStock(ctx, "test-prod", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stock, _ := client.Get(ctx, "stock:test-prod").Int()
	if stock != 8 {
		t.Errorf("expected stock 8, got %d", stock)
	}
}

func TestRedisSetIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "chat:order:test-key")

	ok, err := adapter.SetIdempotency(ctx, "chat:order:test-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first call to succeed")
	}

	ok, err = adapter.SetIdempotency(ctx, "chat:order:test-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected duplicate to be rejected")
	}
}

func TestRedisSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "chat:order:test-key-conc")

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(ctx, "chat:order:test-key-conc")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", successCount.Load())
	}
}
