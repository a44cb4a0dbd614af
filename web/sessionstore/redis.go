package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps session payloads in Redis, letting any process
// instance serve any request.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(addr, password string, db int) *RedisBackend {
	return &RedisBackend{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies the connection during startup.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Save(id string, data []byte, ttl time.Duration) error {
	return b.client.Set(context.Background(), b.key(id), data, ttl).Err()
}

func (b *RedisBackend) Load(id string) ([]byte, error) {
	data, err := b.client.Get(context.Background(), b.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *RedisBackend) Delete(id string) error {
	return b.client.Del(context.Background(), b.key(id)).Err()
}

func (b *RedisBackend) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}
