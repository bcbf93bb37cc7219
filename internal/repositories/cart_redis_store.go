package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix = "littlegrow:cart:"
	cartTTL       = 30 * 24 * time.Hour
)

type cartCmdable interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisCartStore keeps each cart in a Redis hash keyed by user id.
type RedisCartStore struct {
	store cartCmdable
}

// NewRedisCartStore creates a new instance of RedisCartStore.
func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{store: client}
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func cartKey(userID string) string {
	return cartKeyPrefix + userID
}

func (s *RedisCartStore) Items(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := s.store.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart of user %s: %w", userID, err)
	}
	items := make(map[string]int, len(raw))
	for productID, value := range raw {
		qty, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt quantity %q for product %s: %w", value, productID, err)
		}
		items[productID] = qty
	}
	return items, nil
}

func (s *RedisCartStore) Quantity(ctx context.Context, userID, productID string) (int, error) {
	qty, err := s.store.HGet(ctx, cartKey(userID), productID).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cart quantity: %w", err)
	}
	return qty, nil
}

func (s *RedisCartStore) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	key := cartKey(userID)
	if err := s.store.HSet(ctx, key, productID, qty).Err(); err != nil {
		return fmt.Errorf("failed to update cart of user %s: %w", userID, err)
	}
	if err := s.store.Expire(ctx, key, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to refresh cart ttl: %w", err)
	}
	return nil
}

func (s *RedisCartStore) Remove(ctx context.Context, userID, productID string) error {
	if err := s.store.HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("failed to remove product %s from cart: %w", productID, err)
	}
	return nil
}

func (s *RedisCartStore) Clear(ctx context.Context, userID string) error {
	if err := s.store.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart of user %s: %w", userID, err)
	}
	return nil
}
