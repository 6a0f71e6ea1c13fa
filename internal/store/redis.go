package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fractal-lba/sentiment/internal/model"
)

const redisKeyPrefix = "sentiment:model:"

// RedisStore keeps each snapshot as a JSON string under
// sentiment:model:<name>.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
//
// Args:
//   - addr: Redis address (e.g., "localhost:6379")
//   - password: Redis password (empty string if none)
//   - db: Redis database number
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(name string) string {
	return redisKeyPrefix + name
}

func (r *RedisStore) Save(ctx context.Context, name string, s *model.Snapshot) error {
	if err := validateName(name); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(name), buf.Bytes(), 0).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, name string) (*model.Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, redisKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}
	return model.Decode(bytes.NewReader(data))
}

// List scans for model keys.
func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis SCAN failed: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
