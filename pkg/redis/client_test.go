package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock, recordTTL: time.Hour}

	if _, found, err := client.Read(ctx, "sf:sess:cart"); err != nil || found {
		t.Fatalf("expected missing record, found=%v err=%v", found, err)
	}

	if err := client.Write(ctx, "sf:sess:cart", `{"version":1,"items":[]}`); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if mock.ttls["sf:sess:cart"] != time.Hour {
		t.Fatalf("expected record ttl to be applied, got %v", mock.ttls["sf:sess:cart"])
	}

	value, found, err := client.Read(ctx, "sf:sess:cart")
	if err != nil || !found {
		t.Fatalf("read failed found=%v err=%v", found, err)
	}
	if value != `{"version":1,"items":[]}` {
		t.Fatalf("unexpected value %q", value)
	}

	if err := client.Delete(ctx, "sf:sess:cart"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, found, _ := client.Read(ctx, "sf:sess:cart"); found {
		t.Fatalf("expected record to be gone")
	}
}

func TestReadPropagatesBackendErrors(t *testing.T) {
	mock := newMockCmdable()
	mock.getErr = errors.New("connection refused")
	client := &Client{store: mock}

	if _, _, err := client.Read(context.Background(), "k"); err == nil {
		t.Fatal("expected backend error")
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Write(context.Background(), "k", "v"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on nil raw client should be a no-op: %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

type mockCmdable struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
