package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

const redisSessionPrefix = "wanderlust:sess:"

// RedisSessionRepository keeps sessions in Redis with a key TTL matching the
// record expiry.
type RedisSessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisSessionRepository builds a Redis-backed session repository.
func NewRedisSessionRepository(addr, password string) *RedisSessionRepository {
	return NewRedisSessionRepositoryFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}))
}

// NewRedisSessionRepositoryFromClient wraps an existing client.
func NewRedisSessionRepositoryFromClient(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, now: time.Now}
}

// Ping checks connectivity.
func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// Close releases the client.
func (r *RedisSessionRepository) Close() error {
	return r.client.Close()
}

// Get resolves token to its session record.
func (r *RedisSessionRepository) Get(ctx context.Context, token string) (*domain.SessionRecord, error) {
	val, err := r.client.Get(ctx, redisSessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	var rec domain.SessionRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// Save writes the record with a TTL until rec.ExpiresAt.
func (r *RedisSessionRepository) Save(ctx context.Context, rec *domain.SessionRecord) error {
	ttl := rec.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, rec.Token)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, redisSessionPrefix+rec.Token, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// Delete removes a session key.
func (r *RedisSessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, redisSessionPrefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return nil
}
