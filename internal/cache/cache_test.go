package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	data map[string][]byte
	down bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}}
}

var errDown = errors.New("connection refused")

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.down {
		cmd.SetErr(errDown)
		return cmd
	}
	raw, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(raw))
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.down {
		cmd.SetErr(errDown)
		return cmd
	}
	f.data[key] = value.([]byte)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.down {
		cmd.SetErr(errDown)
		return cmd
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return cmd
}

type payload struct {
	Name   string   `json:"name"`
	Skills []string `json:"skills"`
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStoreWithCommands(newFakeRedis())

	in := payload{Name: "Jane", Skills: []string{"Go", "Redis"}}
	if err := store.Set(ctx, "parse:abc", in, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out payload
	found, err := store.Get(ctx, "parse:abc", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected hit")
	}
	if out.Name != in.Name || len(out.Skills) != 2 || out.Skills[1] != "Redis" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

// 未命中必须与错误严格区分。
func TestCacheMissIsNotError(t *testing.T) {
	var out payload
	found, err := newStoreWithCommands(newFakeRedis()).Get(context.Background(), "absent", &out)
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if found {
		t.Error("expected miss")
	}
}

func TestCacheBackendFailureSurfacesError(t *testing.T) {
	f := newFakeRedis()
	f.down = true
	store := newStoreWithCommands(f)

	var out payload
	if _, err := store.Get(context.Background(), "k", &out); err == nil {
		t.Error("expected error when backend is down")
	}
	if err := store.Set(context.Background(), "k", payload{}, time.Minute); err == nil {
		t.Error("expected error when backend is down")
	}
}

func TestCacheDelete(t *testing.T) {
	ctx := context.Background()
	store := newStoreWithCommands(newFakeRedis())

	if err := store.Set(ctx, "k", payload{Name: "x"}, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var out payload
	found, err := store.Get(ctx, "k", &out)
	if err != nil || found {
		t.Errorf("expected miss after delete, found=%v err=%v", found, err)
	}
}
