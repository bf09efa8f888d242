package redis

import (
	"context"
	"testing"
	"time"

	"github.com/corelia-app/corelia-cart/pkg/config"
	"github.com/redis/go-redis/v9"
)

type mockCmdable struct {
	values map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{values: map[string]string{}}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.values[key] = value.(string)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if val, ok := m.values[key]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, exists := m.values[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	m.values[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			delete(m.values, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func TestSetNXOnlyWritesOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win: ok=%v err=%v", ok, err)
	}

	ok, err = client.SetNX(ctx, "k", "second", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("second SetNX should not overwrite")
	}

	val, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "first" {
		t.Fatalf("expected first value preserved, got %q", val)
	}
}

func TestIdempotencyKeyNamespacing(t *testing.T) {
	client := &Client{}
	key := client.IdempotencyKey("checkout", "abc-123")
	if key != "corelia:idempotency:checkout:abc-123" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestOptionsFromConfigRequiresEndpoint(t *testing.T) {
	if _, err := optionsFromConfig(configRedis("")); err == nil {
		t.Fatal("expected error when no endpoint configured")
	}
	opts, err := optionsFromConfig(configRedis("localhost:6379"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
}

func configRedis(addr string) config.RedisConfig {
	return config.RedisConfig{Address: addr, PoolSize: 10}
}
