package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisPromoUsageStore tracks single-use promo redemptions in a Redis set
// per code. Lets multiple service instances share usage state.
type RedisPromoUsageStore struct {
	client *redis.Client
}

// NewRedisPromoUsageStore connects to Redis and verifies the connection.
func NewRedisPromoUsageStore(addr, password string, db int) (*RedisPromoUsageStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPromoUsageStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *RedisPromoUsageStore) Close() error {
	return s.client.Close()
}

func usageKey(code string) string {
	return fmt.Sprintf("promo_used:%s", code)
}

// IsUsed reports whether the customer is in the code's redemption set.
func (s *RedisPromoUsageStore) IsUsed(code, customerID string) (bool, error) {
	ctx := context.Background()
	used, err := s.client.SIsMember(ctx, usageKey(code), customerID).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember failed: %w", err)
	}
	return used, nil
}

// MarkUsed adds the customer to the code's redemption set.
func (s *RedisPromoUsageStore) MarkUsed(code, customerID string) error {
	ctx := context.Background()
	if err := s.client.SAdd(ctx, usageKey(code), customerID).Err(); err != nil {
		return fmt.Errorf("redis sadd failed: %w", err)
	}
	return nil
}
