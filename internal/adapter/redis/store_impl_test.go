package redis

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
)

// fakeClient keeps values in a map and answers with prepared redis results.
type fakeClient struct {
	values map[string]string
	err    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: map[string]string{}}
}

func (f *fakeClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func TestStoreImpl_ReadMissingKey(t *testing.T) {
	got, err := NewStore(newFakeClient()).Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, entity.NewAppData()) {
		t.Errorf("Read() = %+v, want empty document", got)
	}
}

func TestStoreImpl_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := NewStore(client)

	now := time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)
	data := entity.NewAppData()
	data.Sites["r"] = &entity.Site{ID: "r", Name: "Redis site", Settings: entity.SiteSettings{APIKey: "k", Host: "r.test"},
		URLs: map[string]entity.URLEntry{
			"https://r.test/": {URL: "https://r.test/", ContentHash: "h1", Status: entity.StatusChanged},
		}, CreatedAt: now, UpdatedAt: now}

	if err := store.Write(ctx, data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, ok := client.values[repository.StateKey]; !ok {
		t.Fatalf("document not written under %s", repository.StateKey)
	}
	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, data) {
		t.Errorf("Read() = %+v, want %+v", got, data)
	}
}

func TestStoreImpl_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	client := newFakeClient()
	client.err = boom
	store := NewStore(client)

	if _, err := store.Read(ctx); !errors.Is(err, boom) {
		t.Errorf("Read() error = %v, want %v", err, boom)
	}
	if err := store.Write(ctx, entity.NewAppData()); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want %v", err, boom)
	}
	if err := store.Ping(ctx); !errors.Is(err, boom) {
		t.Errorf("Ping() error = %v, want %v", err, boom)
	}
}

func TestStoreImpl_ReadCorrupt(t *testing.T) {
	client := newFakeClient()
	client.values[repository.StateKey] = "not json"
	if _, err := NewStore(client).Read(context.Background()); err == nil {
		t.Error("Read() accepted a corrupt document")
	}
}
