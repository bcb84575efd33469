package storefront

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// durable storage on a shared redis instance. pairs with RedisTransport,
// which carries the change announcements between processes.
type RedisStorage struct {
	ctx    context.Context
	client *redis.Client
}

func NewRedisStorage(ctx context.Context, client *redis.Client) *RedisStorage {
	return &RedisStorage{
		ctx:    ctx,
		client: client,
	}
}

func (self *RedisStorage) Read(key string) ([]byte, error) {
	value, err := self.client.Get(self.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (self *RedisStorage) Write(key string, value []byte) error {
	return self.client.Set(self.ctx, key, value, 0).Err()
}

func (self *RedisStorage) Remove(key string) error {
	return self.client.Del(self.ctx, key).Err()
}
