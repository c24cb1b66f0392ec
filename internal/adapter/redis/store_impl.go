package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
)

// Client is the subset of *redis.Client the store uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// StoreImpl provides a StateStore backed by a single Redis string key.
type StoreImpl struct {
	client Client
	key    string
}

// NewStore creates a store writing the document under repository.StateKey.
func NewStore(client Client) *StoreImpl {
	return &StoreImpl{client: client, key: repository.StateKey}
}

// Ping checks the connection to Redis.
func (r *StoreImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Read fetches and decodes the document. A missing key yields an empty document.
func (r *StoreImpl) Read(ctx context.Context) (*entity.AppData, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.NewAppData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from redis: %w", r.key, err)
	}

	data := &entity.AppData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.key, err)
	}
	if err := entity.Migrate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Write stores the encoded document without expiry.
func (r *StoreImpl) Write(ctx context.Context, data *entity.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", r.key, err)
	}
	return nil
}
