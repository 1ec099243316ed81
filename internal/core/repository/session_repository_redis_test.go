package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

func newRedisSessions(t *testing.T) (*RedisSessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	repo := NewRedisSessionRepositoryFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = repo.Close() })
	return repo, mr
}

func TestRedisSessionRoundTripWithTTL(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisSessions(t)

	rec := &domain.SessionRecord{
		Token:     "tok",
		UserID:    domain.NewID(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, rec))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(redisSessionPrefix+"tok").Seconds(), 5)

	got, err := repo.Get(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.UserID, got.UserID)

	mr.FastForward(2 * time.Hour)
	got, err = repo.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionSaveExpiredDeletes(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisSessions(t)
	require.NoError(t, repo.Save(ctx, &domain.SessionRecord{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, repo.Save(ctx, &domain.SessionRecord{Token: "tok", ExpiresAt: time.Now().Add(-time.Second)}))
	assert.False(t, mr.Exists(redisSessionPrefix+"tok"))
}

func TestRedisSessionUnavailable(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisSessions(t)
	mr.Close()

	_, err := repo.Get(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.ErrorIs(t, repo.Ping(ctx), domain.ErrUnavailable)
}
