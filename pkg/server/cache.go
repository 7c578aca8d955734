package server

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tlind/drive-finder/pkg/common/jsoncompat"
)

// Cache fronts redis for search pages and instructor details. Cache
// failures are never fatal, callers fall through to the backend.
type Cache struct {
	Addr     string
	Password string
	DB       int
	client   *redis.Client
}

func NewCache(addr, password string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{Addr: addr, Password: password, DB: db, client: rdb}
}

func (c *Cache) Get(ctx context.Context, key string, out any) error {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return jsoncompat.Unmarshal([]byte(data), out)
}

func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := jsoncompat.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
