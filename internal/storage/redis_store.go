package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"habitquest/internal/config"
	"habitquest/pkg/types"
)

const (
	userKeyPrefix = "habitquest:users:"

	// maxTxRetries bounds optimistic transaction retries under contention.
	maxTxRetries = 16
)

// RedisUserStore is a UserStore over a Redis document per user. Updates use
// WATCH-based optimistic transactions, so concurrent read-modify-writes to
// the same user are serialized exactly like the document database's
// transaction primitive.
type RedisUserStore struct {
	client *redis.Client
}

// NewRedisUserStore connects to Redis and verifies the connection
func NewRedisUserStore(cfg config.StoreConfig) (*RedisUserStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	return &RedisUserStore{client: rdb}, nil
}

func (s *RedisUserStore) key(userID string) string {
	return userKeyPrefix + userID
}

// GetUser returns the user's document
func (s *RedisUserStore) GetUser(ctx context.Context, userID string) (*types.UserRecord, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get user %s: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	var user types.UserRecord
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return &user, nil
}

// CreateUser stores a fresh document for the user
func (s *RedisUserStore) CreateUser(ctx context.Context, userID string, user *types.UserRecord) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", userID, err)
	}

	created, err := s.client.SetNX(ctx, s.key(userID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("create user %s: %w", userID, err)
	}
	if !created {
		return fmt.Errorf("user %s already exists", userID)
	}
	return nil
}

// Update applies fn inside a WATCH transaction, retrying on conflict
func (s *RedisUserStore) Update(ctx context.Context, userID string, fn UpdateFn) error {
	key := s.key(userID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("update user %s: %w", userID, ErrUserNotFound)
		}
		if err != nil {
			return err
		}

		var user types.UserRecord
		if err := json.Unmarshal(data, &user); err != nil {
			return fmt.Errorf("decode user %s: %w", userID, err)
		}

		if err := fn(&user); err != nil {
			return err
		}

		payload, err := json.Marshal(&user)
		if err != nil {
			return fmt.Errorf("encode user %s: %w", userID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// Key changed under us, take another optimistic round
			continue
		}
		return err
	}

	return fmt.Errorf("update user %s: transaction retries exhausted", userID)
}

// HealthCheck pings Redis
func (s *RedisUserStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisUserStore) Close() error {
	return s.client.Close()
}
