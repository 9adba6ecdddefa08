package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"raid-reserve/internal/logger"
)

const sessionKeyPrefix = "admin_session:"

// RedisStore keeps admin session ids in Redis so revocation holds across
// restarts. Enabled when REDIS_ADDR is configured.
type RedisStore struct {
	Client *redis.Client
}

// InitializeRedisStore connects to Redis and verifies the connection is
// usable before the store is handed out.
func InitializeRedisStore(addr string, log *logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s for admin sessions", addr))
	return &RedisStore{Client: client}, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.Client.Set(ctx, sessionKeyPrefix+id, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Client.Get(ctx, sessionKeyPrefix+id).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session in Redis: %w", err)
	}
	return true, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.Client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
