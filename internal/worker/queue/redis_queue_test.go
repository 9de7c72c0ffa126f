package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"zoomclip/internal/pkg/ids"
)

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	q := NewRedisQueue(rdb, "zoomclip:test:"+ids.NewID("q"))
	t.Cleanup(func() { rdb.Del(context.Background(), q.Name()) })
	return q
}

func TestRedisQueueFIFO(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Push(ctx, id); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if n, _ := q.Len(ctx); n != 3 {
		t.Errorf("Len = %d", n)
	}

	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Pop(ctx, time.Second)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if got != want {
			t.Errorf("Pop = %q, want %q", got, want)
		}
	}
}

func TestRedisQueuePopTimeout(t *testing.T) {
	q := newTestQueue(t)

	got, err := q.Pop(context.Background(), time.Second)
	if err != nil || got != "" {
		t.Errorf("expected empty pop, got %q, %v", got, err)
	}
}
